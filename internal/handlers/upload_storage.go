package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxImageSize = 5 << 20

var allowedImageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// Uploads stores product images below <root>/uploads/products. Paths handed
// out are relative to root and served under /public.
type Uploads struct {
	root string
}

func NewUploads(root string) *Uploads {
	return &Uploads{root: filepath.Clean(root)}
}

func (u *Uploads) SaveImage(file *multipart.FileHeader) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if extension == "" {
		return "", fmt.Errorf("image file extension is required")
	}
	if _, ok := allowedImageExtensions[extension]; !ok {
		return "", fmt.Errorf("unsupported image type: %s", extension)
	}
	if file.Size > maxImageSize {
		return "", fmt.Errorf("image file too large (max 5MB)")
	}

	dir := filepath.Join(u.root, "uploads", "products")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filename := primitive.NewObjectID().Hex() + extension

	out, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return "", err
	}
	defer out.Close()

	in, err := file.Open()
	if err != nil {
		return "", err
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", err
	}
	return path.Join("uploads", "products", filename), nil
}

// Delete removes an uploaded file. Paths outside uploads/ are refused and a
// missing file is not an error.
func (u *Uploads) Delete(relPath string) error {
	trimmed := strings.TrimSpace(relPath)
	if trimmed == "" {
		return nil
	}

	cleanRel := cleanUploadPath(trimmed)
	if !strings.HasPrefix(cleanRel, "uploads/") {
		return fmt.Errorf("refusing to delete non-upload path: %s", relPath)
	}

	target := filepath.Clean(filepath.Join(u.root, filepath.FromSlash(cleanRel)))
	if !strings.HasPrefix(target, u.root+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete path outside public root: %s", relPath)
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func cleanUploadPath(p string) string {
	cleaned := path.Clean("/" + strings.TrimPrefix(strings.TrimSpace(p), "/"))
	return strings.TrimPrefix(cleaned, "/")
}

func isUpload(p string) bool {
	return strings.HasPrefix(cleanUploadPath(p), "uploads/")
}
