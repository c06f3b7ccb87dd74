package storage

import (
	"context"
	"path"

	"github.com/viant/lakeflow/model/types"
)

// ListOutput contains results from a list operation
type ListOutput struct {
	Assets []*Asset `json:"assets,omitempty" description:"List of assets found"`
	Count  int      `json:"count"`
}

// List lists objects under the prefix
func (s *Service) List(ctx context.Context, input *PrefixInput, output *ListOutput) error {
	if input.Bucket == "" {
		return types.NewRequiredError("bucket")
	}
	objects, err := s.cleaner.Objects(ctx, input.Bucket, input.Prefix)
	if err != nil {
		return err
	}
	output.Assets = make([]*Asset, 0, len(objects))
	for _, obj := range objects {
		output.Assets = append(output.Assets, &Asset{
			URL:     obj.URL(),
			Name:    path.Base(obj.URL()),
			Size:    obj.Size(),
			ModTime: obj.ModTime(),
		})
	}
	output.Count = len(output.Assets)
	return nil
}
