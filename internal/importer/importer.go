package importer

import (
	"io"

	"github.com/davitt-io/granary/internal/record"
)

type Source string

const (
	SourceStation Source = "station"
)

type Importer interface {
	Parse(r io.Reader) ([]record.CreateParams, error)
}
