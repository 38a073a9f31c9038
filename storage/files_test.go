package storage

import (
	"reflect"
	"testing"
)

func TestAppendNameSkipsNil(t *testing.T) {
	contracts := "contracts"
	receipt := "receipt.pdf"

	var names []string
	for _, n := range []*string{&contracts, nil, &receipt} {
		names = appendName(names, n)
	}
	want := []string{"contracts", "receipt.pdf"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
}
