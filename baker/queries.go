package baker

import (
	"embed"

	_ "github.com/viant/afs/embed"

	"github.com/viant/afs"
	"github.com/viant/lakeflow/service/meta"
	"github.com/viant/lakeflow/service/query"
)

// Named queries populating baked tables
const (
	QueryPartitionAddressBase      = "partition-addressbase-cleaned"
	QueryUprnToBallots             = "uprn-to-ballots-first-letter"
	QueryAddressesToBoundaryChange = "addresses-to-boundary-change"
	QueryBoundaryReviewsJoined     = "current-boundary-reviews-joined-to-addressbase"
)

// QueriesURL is the location of the embedded query texts
const QueriesURL = "embed:///queries"

//go:embed queries/*.sql
var queryFS embed.FS

// Texts returns query texts backed by the embedded queries
func Texts() *query.Texts {
	return query.NewTexts(meta.New(afs.New(), QueriesURL, &queryFS), QueriesURL)
}
