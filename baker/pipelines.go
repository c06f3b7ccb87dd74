package baker

import (
	"github.com/viant/lakeflow/model"
	"github.com/viant/lakeflow/model/graph"
	"github.com/viant/lakeflow/service/check"
)

// Pipeline names
const (
	MakeAddressBasePartitioned        = "MakeAddressBasePartitioned"
	MakeCurrentElectionsParquet       = "MakeCurrentElectionsParquet"
	MakeCurrentBoundaryChangesParquet = "MakeCurrentBoundaryChangesParquet"
)

// Transformer functions invoked by baked pipelines
const (
	CreateCurrentElectionsCSV       = "create_current_elections_csv"
	CreateCurrentBoundaryReviewsCSV = "create_current_boundary_reviews_csv"
	FirstLetterToOutcodeParquet     = "first_letter_to_outcode_parquet"
)

// LettersKey is the run state key holding postcode first letters
const LettersKey = "letters"

// Letters returns postcode first letters A to Z
func Letters() []string {
	result := make([]string, 0, 26)
	for c := 'A'; c <= 'Z'; c++ {
		result = append(result, string(c))
	}
	return result
}

// Pipelines returns every baked pipeline
func Pipelines() []*model.Pipeline {
	return []*model.Pipeline{
		AddressBasePartitioned(),
		CurrentElectionsParquet(),
		CurrentBoundaryChangesParquet(),
	}
}

func singleton(nodes ...*graph.Node) *graph.Node {
	return graph.NewGuard("Check no other execution is running", "", graph.NewChain("main", nodes...))
}

func cleanup(name string, table *model.Table) *graph.Node {
	return graph.NewTask(name, "storage", "cleanup", map[string]interface{}{
		"bucket": table.Bucket,
		"prefix": table.Prefix,
	})
}

func repair(table *model.Table) *graph.Node {
	return graph.NewTask("Make partitions for "+table.Name, "query", "repair", map[string]interface{}{
		"database": table.Database,
		"table":    table.Name,
	}).WithBlocking("")
}

func populate(name string, table *model.Table, context map[string]interface{}) *graph.Node {
	return graph.NewTask(name, "query", "submit", map[string]interface{}{
		"name":     table.PopulatedBy,
		"database": table.Database,
		"context":  context,
	}).WithBlocking("")
}

func invoke(name, function string, args map[string]interface{}) *graph.Node {
	return graph.NewTask(name, "function", "invoke", map[string]interface{}{
		"function": function,
		"args":     args,
	})
}

func outcodeParquet(source, dest *model.Table, filterColumn string) *graph.Node {
	args := map[string]interface{}{
		"first_letter":       "{item}",
		"source_bucket_name": source.Bucket,
		"source_path":        source.Prefix,
		"dest_bucket_name":   dest.Bucket,
		"dest_path":          dest.Prefix,
	}
	if filterColumn != "" {
		args["filter_column"] = filterColumn
	}
	return graph.NewMap("Make outcode parquet per first letter", "{"+LettersKey+"}", 0,
		invoke("Make outcode parquet", FirstLetterToOutcodeParquet, args))
}

// AddressBasePartitioned rebuilds addressbase partitioned by postcode first letter
func AddressBasePartitioned() *model.Pipeline {
	root := singleton(
		graph.NewTask("Get addressbase cleaned raw table location", "catalog", "location", map[string]interface{}{
			"database": Database,
			"table":    AddressBaseCleanedRaw.Name,
		}).WithAssign("addressbase_source", "{result.location}"),
		cleanup("Remove old data", AddressBasePartitioned),
		populate("Partition addressbase cleaned", AddressBasePartitioned, map[string]interface{}{
			"from_table":         AddressBaseCleanedRaw.Name,
			"addressbase_source": "{addressbase_source}",
		}),
		repair(AddressBasePartitioned),
		check.SourceUniqueness(AddressBasePartitioned.Name, "addressbase_source"),
	)
	return &model.Pipeline{
		Name:        MakeAddressBasePartitioned,
		Description: "Creates addressbase partitioned as parquet by the first letter of the postcode",
		Tables:      []*model.Table{AddressBaseCleanedRaw, AddressBasePartitioned},
		Buckets:     []*model.Bucket{PollingStationsPrivateData},
		Root:        root,
	}
}

// CurrentElectionsParquet builds a parquet file of current ballots per outcode
func CurrentElectionsParquet() *model.Pipeline {
	perLetter := graph.NewMap("Fan out letters", "{"+LettersKey+"}", 0,
		populate("Process letter", CurrentBallotsJoinedToAddressBase, map[string]interface{}{
			"from_table":   CurrentBallots.Name,
			"first_letter": "{item}",
		}))
	root := singleton(
		cleanup("Remove old data", CurrentBallotsJoinedToAddressBase),
		invoke("Make current elections CSV", CreateCurrentElectionsCSV, map[string]interface{}{
			"s3_bucket": CurrentBallots.Bucket,
			"s3_prefix": CurrentBallots.Prefix,
		}),
		perLetter,
		repair(CurrentBallotsJoinedToAddressBase),
		outcodeParquet(CurrentBallotsJoinedToAddressBase, &model.Table{Bucket: ResultsBucket.Name, Prefix: "current_elections_parquet/"}, ""),
	)
	return &model.Pipeline{
		Name:        MakeCurrentElectionsParquet,
		Description: "Creates a parquet file per outcode listing current ballots per address",
		Seed:        map[string]interface{}{LettersKey: Letters()},
		Tables:      []*model.Table{CurrentBallots, CurrentBallotsJoinedToAddressBase},
		Buckets:     []*model.Bucket{EEDataCacheProduction, ResultsBucket},
		Root:        root,
	}
}

// CurrentBoundaryChangesParquet builds a parquet file of boundary reviews per outcode
func CurrentBoundaryChangesParquet() *model.Pipeline {
	pairs := graph.NewChain("Create addresses to boundary change",
		cleanup("Remove old addresses to boundary change", AddressesToBoundaryChange),
		graph.NewTask("Query unique review and division type pairs", "query", "submit", map[string]interface{}{
			"name":     "boundary_review_pairs",
			"database": Database,
			"query": "SELECT DISTINCT boundary_review_id, division_type FROM " + CurrentBoundaryChanges.Name +
				" ORDER BY boundary_review_id, division_type",
		}).WithBlocking("").WithAssign("pairs_query_execution_id", "{result.queryExecutionId}"),
		graph.NewTask("Get unique pairs", "query", "results", map[string]interface{}{
			"queryExecutionId": "{pairs_query_execution_id}",
		}).WithAssign("pairs", "{result.rows}"),
		graph.NewMap("Create addresses for each pair", "{pairs}", 5,
			populate("Create addresses for pair", AddressesToBoundaryChange, map[string]interface{}{
				"boundary_review_id": "{item[0]}",
				"division_type":      "{item[1]}",
			})),
	)
	root := singleton(
		cleanup("Remove old data", CurrentBoundaryChanges),
		invoke("Make current boundary changes CSV", CreateCurrentBoundaryReviewsCSV, map[string]interface{}{
			"s3_bucket": CurrentBoundaryChanges.Bucket,
			"s3_prefix": CurrentBoundaryChanges.Prefix,
		}),
		repair(CurrentBoundaryChanges),
		pairs,
		repair(AddressesToBoundaryChange),
		cleanup("Remove old joined data", CurrentBoundaryReviewsJoinedToAddressBase),
		populate("Create current boundary reviews joined to addressbase", CurrentBoundaryReviewsJoinedToAddressBase, map[string]interface{}{
			"from_table": AddressBasePartitioned.Name,
		}),
		repair(CurrentBoundaryReviewsJoinedToAddressBase),
		check.DataQuality("Addressbase data quality checks", AddressBasePartitioned.Name, CurrentBoundaryReviewsJoinedToAddressBase.Name, "addressbase_source"),
		outcodeParquet(CurrentBoundaryReviewsJoinedToAddressBase, CurrentBoundaryReviewsParquet, "boundary_reviews"),
	)
	return &model.Pipeline{
		Name:        MakeCurrentBoundaryChangesParquet,
		Description: "Creates a parquet file per outcode listing boundary reviews per address",
		Seed:        map[string]interface{}{LettersKey: Letters()},
		Tables: []*model.Table{
			AddressBasePartitioned,
			CurrentBoundaryChanges,
			AddressesToBoundaryChange,
			CurrentBoundaryReviewsJoinedToAddressBase,
			CurrentBoundaryReviewsParquet,
		},
		Buckets: []*model.Bucket{ResultsBucket, PollingStationsPrivateData},
		Root:    root,
	}
}
