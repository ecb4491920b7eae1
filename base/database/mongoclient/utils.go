package mongoclient

import (
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/xerrors"
)

var (
	ErrNotStruct    = xerrors.New("given value is not a struct")
	ErrDisallowZero = xerrors.New("zero value is not allowed")
)

// MakeBsonM flattens a struct with pointer fields into bson.M using the bson
// tags, skipping nil fields. Used to build partial update documents from
// patchable structs.
func MakeBsonM(v interface{}) (bson.M, error) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, ErrNotStruct
	}

	res := bson.M{}
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("bson")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		fv := val.Field(i)
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				continue
			}
			res[name] = fv.Elem().Interface()
		} else {
			if fv.IsZero() {
				continue
			}
			res[name] = fv.Interface()
		}
	}
	return res, nil
}
