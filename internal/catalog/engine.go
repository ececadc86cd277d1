package catalog

import (
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
	"golang.org/x/text/cases"
)

const (
	// FeaturedSize is how many top-ranked documents the home listing features.
	FeaturedSize = 4

	// RemainderStart is the first ranked index shown in the shuffled section.
	// Indices FeaturedSize..RemainderStart-1 appear in neither section; the
	// home page has always behaved this way and the gap is kept until product
	// decides which side should absorb them.
	RemainderStart = 6
)

// Validate checks that every record carries the fields ranking, search and
// grouping rely on.
func Validate(snapshot []models.Document) error {
	for _, d := range snapshot {
		if d.Subject == "" {
			return &common.MalformedRecordError{ID: d.ID, Field: "subject"}
		}
		if d.Title == "" {
			return &common.MalformedRecordError{ID: d.ID, Field: "title"}
		}
	}
	return nil
}

// RankByPopularity returns snapshot ordered by DownloadCount, highest first.
// Records with equal counts keep their snapshot order.
func RankByPopularity(snapshot []models.Document) ([]models.Document, error) {
	if err := Validate(snapshot); err != nil {
		return nil, err
	}

	ranked := slices.Clone(snapshot)
	slices.SortStableFunc(ranked, func(a, b models.Document) int {
		switch {
		case a.DownloadCount > b.DownloadCount:
			return -1
		case a.DownloadCount < b.DownloadCount:
			return 1
		default:
			return 0
		}
	})
	return ranked, nil
}

// FilterBySearch keeps the records whose subject or title contains query,
// compared with Unicode case folding. Order is preserved. An empty query
// matches every record; callers decide whether blank input means "no filter".
func FilterBySearch(snapshot []models.Document, query string) ([]models.Document, error) {
	if err := Validate(snapshot); err != nil {
		return nil, err
	}

	fold := cases.Fold()
	needle := fold.String(query)

	out := make([]models.Document, 0, len(snapshot))
	for _, d := range snapshot {
		if strings.Contains(fold.String(d.Subject), needle) || strings.Contains(fold.String(d.Title), needle) {
			out = append(out, d)
		}
	}
	return out, nil
}

// PartitionFeatured splits a popularity-ranked listing into the featured
// head and the remainder that follows RemainderStart.
func PartitionFeatured(ranked []models.Document) (featured, remainder []models.Document) {
	featured = slices.Clone(ranked[:min(FeaturedSize, len(ranked))])
	if len(ranked) > RemainderStart {
		remainder = slices.Clone(ranked[RemainderStart:])
	} else {
		remainder = []models.Document{}
	}
	return featured, remainder
}

// Shuffle returns a randomly permuted copy of docs.
func Shuffle(docs []models.Document) []models.Document {
	return shuffleWith(rand.Shuffle, docs)
}

func shuffleWith(shuffle func(n int, swap func(i, j int)), docs []models.Document) []models.Document {
	out := slices.Clone(docs)
	shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// HomeListing is the unfiltered home page: the featured set and a shuffled
// remainder, both derived from one ranking of the snapshot.
type HomeListing struct {
	Featured  []models.Document `json:"featured"`
	Remainder []models.Document `json:"remainder"`
}

// BuildHomeListing ranks snapshot and splits it for the home page.
func BuildHomeListing(snapshot []models.Document) (HomeListing, error) {
	ranked, err := RankByPopularity(snapshot)
	if err != nil {
		return HomeListing{}, err
	}
	featured, remainder := PartitionFeatured(ranked)
	return HomeListing{Featured: featured, Remainder: Shuffle(remainder)}, nil
}

// Search ranks snapshot and then filters it, so results come back in
// popularity order.
func Search(snapshot []models.Document, query string) ([]models.Document, error) {
	ranked, err := RankByPopularity(snapshot)
	if err != nil {
		return nil, err
	}
	return FilterBySearch(ranked, query)
}
