package baker

import (
	"github.com/viant/lakeflow/model"
)

// Database is the catalog database of every baked table
const Database = "dc_data_baker"

// Buckets
var (
	PollingStationsPrivateData = &model.Bucket{Name: "pollingstations.private.data"}
	ResultsBucket              = &model.Bucket{Name: "dc-data-baker-results-bucket"}
	EEDataCacheProduction      = &model.Bucket{Name: "ee.data-cache.production"}
)

func columns(pairs ...string) []*model.Column {
	result := make([]*model.Column, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		result = append(result, &model.Column{Name: pairs[i], Type: pairs[i+1]})
	}
	return result
}

var firstLetter = columns("first_letter", "string")

// Tables
var (
	AddressBaseCleanedRaw = &model.Table{
		Name:        "addressbase_cleaned_raw",
		Database:    Database,
		Description: "Addressbase table as produced for loading into WDIV",
		Bucket:      PollingStationsPrivateData.Name,
		Prefix:      "addressbase/current/addressbase_cleaned_raw/",
		Format:      "csv",
		Columns:     columns("uprn", "string", "address", "string", "postcode", "string", "location", "string", "address_type", "string"),
	}

	AddressBasePartitioned = &model.Table{
		Name:          "addressbase_partitioned",
		Database:      Database,
		Description:   "Addressbase partitioned by first letter of postcode, with latitude and longitude",
		Bucket:        PollingStationsPrivateData.Name,
		Prefix:        "addressbase/{dc_environment}/addressbase_partitioned/",
		Format:        "parquet",
		Columns:       columns("outcode", "string", "uprn", "string", "address", "string", "postcode", "string", "longitude", "double", "latitude", "double", "addressbase_source", "string"),
		PartitionKeys: firstLetter,
		DependsOn:     []string{"addressbase_cleaned_raw"},
		PopulatedBy:   QueryPartitionAddressBase,
	}

	CurrentBallots = &model.Table{
		Name:        "current_ballots",
		Database:    Database,
		Description: "Current ballots with the WKT of their geography",
		Bucket:      EEDataCacheProduction.Name,
		Prefix:      "ballots-with-wkt/",
		Format:      "csv",
		Columns:     columns("election_id", "string", "division_id", "string", "geometry", "string", "source_table", "string"),
	}

	CurrentBallotsJoinedToAddressBase = &model.Table{
		Name:          "current_ballots_joined_to_address_base",
		Database:      Database,
		Description:   "Current ballots per UPRN",
		Bucket:        ResultsBucket.Name,
		Prefix:        "current_ballots_joined_to_address_base/",
		Format:        "parquet",
		Columns:       columns("uprn", "string", "address", "string", "postcode", "string", "addressbase_source", "string", "ballot_ids", "array<string>"),
		PartitionKeys: firstLetter,
		DependsOn:     []string{"current_ballots", "addressbase_partitioned"},
		PopulatedBy:   QueryUprnToBallots,
	}

	CurrentBoundaryChanges = &model.Table{
		Name:        "current_boundary_changes",
		Database:    Database,
		Description: "Current boundary reviews with old and new division geographies",
		Bucket:      ResultsBucket.Name,
		Prefix:      "current_boundary_changes/{dc_environment}/",
		Format:      "csv",
		Columns:     columns("boundary_review_id", "string", "division_type", "string", "old_division_id", "string", "new_division_id", "string", "geometry", "string"),
	}

	AddressesToBoundaryChange = &model.Table{
		Name:          "addresses_to_boundary_change",
		Database:      Database,
		Description:   "UPRNs affected by a boundary review per division type",
		Bucket:        ResultsBucket.Name,
		Prefix:        "addresses_to_boundary_change/{dc_environment}/",
		Format:        "parquet",
		Columns:       columns("uprn", "string", "old_division_id", "string", "new_division_id", "string"),
		PartitionKeys: columns("boundary_review_id", "string", "division_type", "string"),
		DependsOn:     []string{"current_boundary_changes", "addressbase_partitioned"},
		PopulatedBy:   QueryAddressesToBoundaryChange,
	}

	CurrentBoundaryReviewsJoinedToAddressBase = &model.Table{
		Name:          "current_boundary_reviews_joined_to_addressbase",
		Database:      Database,
		Description:   "Addressbase rows with the boundary reviews affecting them",
		Bucket:        ResultsBucket.Name,
		Prefix:        "current_boundary_reviews_joined_to_addressbase/{dc_environment}/",
		Format:        "parquet",
		Columns:       columns("uprn", "string", "address", "string", "postcode", "string", "outcode", "string", "addressbase_source", "string", "boundary_reviews", "string"),
		PartitionKeys: firstLetter,
		DependsOn:     []string{"addresses_to_boundary_change", "addressbase_partitioned"},
		PopulatedBy:   QueryBoundaryReviewsJoined,
	}

	CurrentBoundaryReviewsParquet = &model.Table{
		Name:        "current_boundary_reviews_parquet",
		Database:    Database,
		Description: "One parquet file per outcode listing boundary reviews per address",
		Bucket:      ResultsBucket.Name,
		Prefix:      "current_boundary_reviews_parquet/{dc_environment}/",
		Format:      "parquet",
		DependsOn:   []string{"current_boundary_reviews_joined_to_addressbase"},
		PopulatedBy: FirstLetterToOutcodeParquet,
	}
)

// Tables returns every baked table
func Tables() []*model.Table {
	return []*model.Table{
		AddressBaseCleanedRaw,
		AddressBasePartitioned,
		CurrentBallots,
		CurrentBallotsJoinedToAddressBase,
		CurrentBoundaryChanges,
		AddressesToBoundaryChange,
		CurrentBoundaryReviewsJoinedToAddressBase,
		CurrentBoundaryReviewsParquet,
	}
}

// Buckets returns every bucket used by baked tables
func Buckets() []*model.Bucket {
	return []*model.Bucket{PollingStationsPrivateData, ResultsBucket, EEDataCacheProduction}
}
