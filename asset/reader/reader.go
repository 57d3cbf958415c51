package reader

import (
	"fmt"

	"github.com/blockspacer/kdtracer/asset"
	"github.com/blockspacer/kdtracer/log"
	"github.com/blockspacer/kdtracer/scene"
)

var logger = log.New("reader")

// The Reader interface is implemented by all model readers.
type Reader interface {
	// Read model from a resource.
	Read(*asset.Resource) (*scene.Model, error)
}

// Read model from a local file or http(s) URL. If relTo is not nil, relative
// paths are resolved against it.
func ReadModel(path string, relTo *asset.Resource) (*scene.Model, error) {
	res, err := asset.NewResource(path, relTo)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return Read(res)
}

// Read model from a resource selecting the reader based on the file extension.
func Read(res *asset.Resource) (*scene.Model, error) {
	var reader Reader
	switch res.Ext() {
	case ".ply":
		reader = newPLYReader()
	default:
		return nil, fmt.Errorf("reader: unsupported model format %q", res.Ext())
	}
	return reader.Read(res)
}
