package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/Congregate/apperr"
	"github.com/Congregate/initializers"
	"github.com/Congregate/models"
	"github.com/doug-martin/goqu/v9"
)

// TagResolver resolves the tags attached to people and content. The feed
// builder depends on this rather than on the database so it can be fed
// partial failures in tests.
type TagResolver interface {
	PersonTags(ctx context.Context, personID int) ([]models.Tag, error)
	ContentTags(ctx context.Context, contentID int, contentType string) ([]models.Tag, error)
}

// PeopleFinder returns the ids of people holding the given tags.
type PeopleFinder func(ctx context.Context, tagIDs []int, matchAll bool) ([]int, error)

// DBTagResolver is the TagResolver backed by initializers.DB.
type DBTagResolver struct{}

func (DBTagResolver) PersonTags(ctx context.Context, personID int) ([]models.Tag, error) {
	return GetPersonTags(ctx, personID)
}

func (DBTagResolver) ContentTags(ctx context.Context, contentID int, contentType string) ([]models.Tag, error) {
	return GetContentTags(ctx, contentID, contentType)
}

var tagColumns = []interface{}{
	"tag.tag_id",
	"tag.name",
	"tag.namespace",
	"tag.color",
	"tag.description",
	"tag.self_assignable",
	"tag.assign_min_role",
	"tag.is_active",
	"tag.created_by",
	"tag.datetime_create",
	"tag.updated_by",
	"tag.datetime_update",
}

// GetPersonTags returns the tags held by a person in the order they were
// acquired. A person without tags yields an empty slice; an unknown person
// yields apperr.ErrNotFound.
func GetPersonTags(ctx context.Context, personID int) ([]models.Tag, error) {
	count, err := initializers.DB.From("person").
		Where(goqu.C("person_id").Eq(personID)).
		CountContext(ctx)
	if err != nil {
		return nil, ClassifyDBError(err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: person %d", apperr.ErrNotFound, personID)
	}

	tags := []models.Tag{}
	err = initializers.DB.From("tag").
		Select(tagColumns...).
		InnerJoin(
			goqu.T("person_tag"),
			goqu.On(goqu.Ex{"person_tag.tag_id": goqu.I("tag.tag_id")}),
		).
		Where(goqu.I("person_tag.person_id").Eq(personID)).
		Order(goqu.I("person_tag.datetime_create").Asc(), goqu.I("tag.tag_id").Asc()).
		ScanStructsContext(ctx, &tags)
	if err != nil {
		return nil, ClassifyDBError(err)
	}

	return tags, nil
}

// FindPeopleByTagIds returns the people holding any (matchAll false) or
// every (matchAll true) tag in tagIDs, ascending by id. An empty tag set
// matches nobody.
func FindPeopleByTagIds(ctx context.Context, tagIDs []int, matchAll bool) ([]int, error) {
	wanted := uniqueInts(tagIDs)
	if len(wanted) == 0 {
		return []int{}, nil
	}

	var holdings []models.PersonTag
	err := initializers.DB.From("person_tag").
		Select("person_id", "tag_id").
		Where(goqu.C("tag_id").In(wanted)).
		ScanStructsContext(ctx, &holdings)
	if err != nil {
		return nil, ClassifyDBError(err)
	}

	return MatchTagHolders(holdings, wanted, matchAll), nil
}

// MatchTagHolders is the set logic behind FindPeopleByTagIds.
func MatchTagHolders(holdings []models.PersonTag, tagIDs []int, matchAll bool) []int {
	wanted := make(map[int]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		wanted[id] = struct{}{}
	}
	if len(wanted) == 0 {
		return []int{}
	}

	held := make(map[int]map[int]struct{})
	for _, h := range holdings {
		if _, ok := wanted[h.Tag_ID]; !ok {
			continue
		}
		if held[h.Person_ID] == nil {
			held[h.Person_ID] = make(map[int]struct{})
		}
		held[h.Person_ID][h.Tag_ID] = struct{}{}
	}

	people := []int{}
	for personID, tags := range held {
		if matchAll && len(tags) != len(wanted) {
			continue
		}
		people = append(people, personID)
	}
	sort.Ints(people)

	return people
}

func contentJoinTable(contentType string) (table string, key string, err error) {
	switch contentType {
	case models.ContentTypeEvent:
		return "event_tag", "event_id", nil
	case models.ContentTypeAnnouncement:
		return "announcement_tag", "announcement_id", nil
	}
	return "", "", apperr.NewValidationError("contentType", fmt.Sprintf("unsupported content type %q", contentType))
}

// GetContentTags returns the audience tags of an event or announcement.
func GetContentTags(ctx context.Context, contentID int, contentType string) ([]models.Tag, error) {
	joinTable, key, err := contentJoinTable(contentType)
	if err != nil {
		return nil, err
	}

	tags := []models.Tag{}
	err = initializers.DB.From("tag").
		Select(tagColumns...).
		InnerJoin(
			goqu.T(joinTable),
			goqu.On(goqu.Ex{joinTable + ".tag_id": goqu.I("tag.tag_id")}),
		).
		Where(goqu.I(joinTable + "." + key).Eq(contentID)).
		Order(goqu.I("tag.name").Asc()).
		ScanStructsContext(ctx, &tags)
	if err != nil {
		return nil, ClassifyDBError(err)
	}

	return tags, nil
}

type contentTagRow struct {
	Content_ID int `db:"content_id"`
	models.Tag
}

// GetContentTagsBatch loads the audience tags for a list of content ids in
// one query. Ids without tags map to an empty slice.
func GetContentTagsBatch(ctx context.Context, contentIDs []int, contentType string) (map[int][]models.Tag, error) {
	joinTable, key, err := contentJoinTable(contentType)
	if err != nil {
		return nil, err
	}

	result := make(map[int][]models.Tag, len(contentIDs))
	ids := uniqueInts(contentIDs)
	for _, id := range ids {
		result[id] = []models.Tag{}
	}
	if len(ids) == 0 {
		return result, nil
	}

	columns := append([]interface{}{goqu.I(joinTable + "." + key).As("content_id")}, tagColumns...)

	var rows []contentTagRow
	err = initializers.DB.From("tag").
		Select(columns...).
		InnerJoin(
			goqu.T(joinTable),
			goqu.On(goqu.Ex{joinTable + ".tag_id": goqu.I("tag.tag_id")}),
		).
		Where(goqu.I(joinTable + "." + key).In(ids)).
		Order(goqu.I("tag.name").Asc()).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, ClassifyDBError(err)
	}

	for _, row := range rows {
		result[row.Content_ID] = append(result[row.Content_ID], row.Tag)
	}

	return result, nil
}

// ReplaceContentTags swaps the audience tags of an event or announcement
// inside one transaction.
func ReplaceContentTags(ctx context.Context, contentID int, contentType string, tagIDs []int) error {
	joinTable, key, err := contentJoinTable(contentType)
	if err != nil {
		return err
	}

	err = initializers.DB.WithTx(func(tx *goqu.TxDatabase) error {
		if _, err := tx.Delete(joinTable).
			Where(goqu.C(key).Eq(contentID)).
			Executor().ExecContext(ctx); err != nil {
			return err
		}
		return InsertContentTags(ctx, tx, contentID, contentType, tagIDs)
	})

	return ClassifyDBError(err)
}

// InsertContentTags attaches audience tags inside a caller's transaction.
// Duplicate ids are ignored.
func InsertContentTags(ctx context.Context, tx *goqu.TxDatabase, contentID int, contentType string, tagIDs []int) error {
	joinTable, key, err := contentJoinTable(contentType)
	if err != nil {
		return err
	}
	ids := uniqueInts(tagIDs)
	if len(ids) == 0 {
		return nil
	}

	rows := make([]interface{}, 0, len(ids))
	for _, tagID := range ids {
		rows = append(rows, goqu.Record{key: contentID, "tag_id": tagID})
	}
	_, err = tx.Insert(joinTable).Rows(rows...).Executor().ExecContext(ctx)
	return err
}

func uniqueInts(values []int) []int {
	seen := make(map[int]struct{}, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func tagIDSet(tags []models.Tag) map[int]struct{} {
	set := make(map[int]struct{}, len(tags))
	for _, t := range tags {
		set[t.Tag_ID] = struct{}{}
	}
	return set
}
