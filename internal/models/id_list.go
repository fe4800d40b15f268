package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDList holds a set of document references. Older product documents stored a
// single category id instead of an array, so both shapes are accepted on read.
type IDList []primitive.ObjectID

// UnmarshalBSONValue accepts null, a single ObjectID or an array of ObjectIDs.
func (l *IDList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*l = IDList{}
		return nil
	case bsontype.Array:
		var values []primitive.ObjectID
		if err := bson.UnmarshalValue(t, data, &values); err != nil {
			return err
		}
		*l = values
		return nil
	case bsontype.ObjectID:
		var value primitive.ObjectID
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*l = IDList{value}
		return nil
	default:
		return fmt.Errorf("cannot decode %s into IDList", t)
	}
}

// MarshalBSONValue always stores the list as an array.
func (l IDList) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if l == nil {
		return bson.MarshalValue([]primitive.ObjectID{})
	}
	return bson.MarshalValue([]primitive.ObjectID(l))
}

// Contains reports whether id is a member of the list.
func (l IDList) Contains(id primitive.ObjectID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// ParseIDs converts hex strings to ObjectIDs, dropping blanks and duplicates.
func ParseIDs(values []string) (IDList, error) {
	seen := map[primitive.ObjectID]struct{}{}
	out := make(IDList, 0, len(values))
	for _, raw := range values {
		if raw == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid id: %s", raw)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
