package importer

import (
	"fmt"
	"io"

	"github.com/davitt-io/granary/internal/importer/station"
	"github.com/davitt-io/granary/internal/record"
)

type Service struct {
	stationImporter Importer
}

func NewService() *Service {
	return &Service{
		stationImporter: station.NewParser(),
	}
}

func (s *Service) Import(source Source, r io.Reader) ([]record.CreateParams, error) {
	var imp Importer

	switch source {
	case SourceStation:
		imp = s.stationImporter
	default:
		return nil, fmt.Errorf("unknown source: %s", source)
	}

	return imp.Parse(r)
}
