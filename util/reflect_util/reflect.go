// Package reflect_util lists struct fields for the settings mapper.
package reflect_util

import "reflect"

// GetFields returns the fields of struct type t in declaration order.
func GetFields(t reflect.Type) []reflect.StructField {
	num := t.NumField()
	fields := make([]reflect.StructField, 0, num)
	for i := 0; i < num; i++ {
		fields = append(fields, t.Field(i))
	}
	return fields
}
