package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace/internal/catalog"
)

const maxMultipartMemory = 32 << 20

// productRequest is the body of product create and update, sent either as
// JSON or as multipart form data with image files under "images".
type productRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	Category    *idList  `json:"category"`
	Images      []string `json:"images"`

	// saved lists files written while parsing, for cleanup on failure.
	saved []string
}

func (r productRequest) input() catalog.ProductInput {
	in := catalog.ProductInput{Images: r.Images}
	if r.Title != nil {
		in.Title = *r.Title
	}
	if r.Description != nil {
		in.Description = *r.Description
	}
	if r.Price != nil {
		in.Price = *r.Price
	}
	if r.Quantity != nil {
		in.Quantity = *r.Quantity
	}
	if r.Category != nil {
		in.Categories = *r.Category
	}
	return in
}

func (r productRequest) patch() catalog.ProductPatch {
	p := catalog.ProductPatch{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Quantity:    r.Quantity,
		Images:      r.Images,
	}
	if r.Category != nil {
		ids := []string(*r.Category)
		p.Categories = &ids
	}
	return p
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

func bindProductRequest(c *gin.Context, uploads *Uploads) (productRequest, error) {
	if isMultipart(c) {
		return parseMultipartProductRequest(c, uploads)
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return productRequest{}, err
	}
	return req, nil
}

func parseMultipartProductRequest(c *gin.Context, uploads *Uploads) (productRequest, error) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		return productRequest{}, err
	}

	var req productRequest

	if value, ok := c.GetPostForm("title"); ok {
		value = strings.TrimSpace(value)
		req.Title = &value
	}
	if value, ok := c.GetPostForm("description"); ok {
		value = strings.TrimSpace(value)
		req.Description = &value
	}
	if value, ok := c.GetPostForm("price"); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return productRequest{}, errors.New("price must be a number")
		}
		req.Price = &parsed
	}
	if value, ok := c.GetPostForm("quantity"); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return productRequest{}, errors.New("quantity must be an integer")
		}
		req.Quantity = &parsed
	}

	// category may repeat or carry a comma separated list.
	if values, ok := c.GetPostFormArray("category"); ok {
		var ids idList
		for _, v := range values {
			ids = append(ids, splitIDs(v)...)
		}
		req.Category = &ids
	}

	// Existing image paths kept by the client come as text fields.
	if values, ok := c.GetPostFormArray("images"); ok {
		req.Images = append(req.Images, values...)
	}

	if form := c.Request.MultipartForm; form != nil {
		for _, file := range form.File["images"] {
			imagePath, err := uploads.SaveImage(file)
			if err != nil {
				req.discard(c, uploads)
				return productRequest{}, err
			}
			req.saved = append(req.saved, imagePath)
			req.Images = append(req.Images, imagePath)
		}
	}

	return req, nil
}

// foreignUploads returns the upload paths in the request that were neither
// saved by this request nor already listed in owned.
func (r productRequest) foreignUploads(owned []string) []string {
	known := make(map[string]struct{}, len(owned)+len(r.saved))
	for _, p := range owned {
		known[cleanUploadPath(p)] = struct{}{}
	}
	for _, p := range r.saved {
		known[cleanUploadPath(p)] = struct{}{}
	}
	var foreign []string
	for _, p := range r.Images {
		if !isUpload(p) {
			continue
		}
		if _, ok := known[cleanUploadPath(p)]; !ok {
			foreign = append(foreign, p)
		}
	}
	return foreign
}

// discard deletes the files saved for a request that did not go through.
func (r productRequest) discard(c *gin.Context, uploads *Uploads) {
	for _, p := range r.saved {
		if err := uploads.Delete(p); err != nil {
			logFor(c).Warn().Err(err).Str("path", p).Msg("upload cleanup failed")
		}
	}
}

func respondMultipartError(c *gin.Context, route string, err error) {
	respondWithError(c, http.StatusBadRequest, route, err.Error())
}
