package storage

import (
	"context"

	"github.com/viant/lakeflow/model/types"
)

// PrefixInput identifies a bucket prefix
type PrefixInput struct {
	Bucket string `json:"bucket" required:"true" description:"bucket name"`
	Prefix string `json:"prefix,omitempty" description:"object key prefix"`
}

// CleanupOutput represents cleanup result
type CleanupOutput struct {
	URL     string `json:"url"`
	Deleted int    `json:"deleted"`
}

// Cleanup deletes all objects under the prefix
func (s *Service) Cleanup(ctx context.Context, input *PrefixInput, output *CleanupOutput) error {
	if input.Bucket == "" {
		return types.NewRequiredError("bucket")
	}
	deleted, err := s.cleaner.DeleteAllUnderPrefix(ctx, input.Bucket, input.Prefix)
	if err != nil {
		return err
	}
	output.URL = s.cleaner.URL(input.Bucket, input.Prefix)
	output.Deleted = deleted
	return nil
}
