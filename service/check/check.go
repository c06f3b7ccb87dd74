package check

import (
	"fmt"

	"github.com/viant/lakeflow/model/failure"
	"github.com/viant/lakeflow/model/graph"
)

// RowCountQuery counts rows of the source and target tables in one pass
const RowCountQuery = `WITH source_count AS (
    SELECT COUNT(*) AS count
    FROM {source_table_name}
),
target_count AS (
    SELECT COUNT(*) AS count
    FROM {target_table_name}
)
SELECT
    source_count.count AS source_count,
    target_count.count AS target_count,
    CASE
        WHEN source_count.count = target_count.count THEN 'match'
        ELSE 'mismatch'
    END AS match_status
FROM source_count, target_count`

// SourceUniquenessQuery returns the query counting distinct values of column
func SourceUniquenessQuery(column string) string {
	return fmt.Sprintf("SELECT COUNT(DISTINCT %s) AS %ss_count FROM {table_name};", column, column)
}

// SourceUniqueness passes when table holds exactly one distinct value of column
func SourceUniqueness(table, column string) *graph.Node {
	countKey := column + "_count"
	protocol := &Protocol{
		Name:      column + " check",
		Query:     SourceUniquenessQuery(column),
		QueryName: column + "_uniqueness",
		Context:   map[string]interface{}{"table_name": table},
		Assign:    map[string]string{countKey: "{result.rows[0][0]}"},
		Rules: []*graph.Rule{
			graph.When(countKey, "eq", "1", graph.NewSucceed("single "+column)),
		},
		Default: graph.NewFail("multiple "+column, failure.MultipleSourcesDetected,
			fmt.Sprintf("expected one distinct %s, found {%s}", column, countKey), countKey),
	}
	return protocol.Node()
}

// RowCountParity passes when source and target tables have the same number of rows
func RowCountParity(source, target string) *graph.Node {
	protocol := &Protocol{
		Name:      "row count check",
		Query:     RowCountQuery,
		QueryName: "row_count",
		Context: map[string]interface{}{
			"source_table_name": source,
			"target_table_name": target,
		},
		Assign: map[string]string{
			"source_count": "{result.rows[0][0]}",
			"target_count": "{result.rows[0][1]}",
			"match_status": "{result.rows[0][2]}",
		},
		Rules: []*graph.Rule{
			graph.WhenRef("source_count", "eq", "target_count", graph.NewSucceed("row counts match")),
		},
		Default: graph.NewFail("row counts differ", failure.RowCountMismatch,
			"source and target tables have different row counts", "source_count", "target_count"),
	}
	return protocol.Node()
}

// Gate runs checks in parallel; it passes only when every check passes
func Gate(name string, checks ...*graph.Node) *graph.Node {
	return graph.NewParallel(name, checks...)
}

// DataQuality checks that target was built from a single source and kept every source row
func DataQuality(name, source, target, sourceColumn string) *graph.Node {
	return Gate(name, SourceUniqueness(target, sourceColumn), RowCountParity(source, target))
}
