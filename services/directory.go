package services

import (
	"context"
	"sort"
	"strings"

	"github.com/Congregate/models"
)

const NoFamilyLabel = "No Family"

// FilterDirectory applies the text, tag and role filters with AND
// semantics. An empty search, empty tag list or empty role disables that
// filter. Input order is preserved.
func FilterDirectory(
	ctx context.Context,
	entries []models.DirectoryEntry,
	filter models.DirectoryFilter,
	finder PeopleFinder,
) ([]models.DirectoryEntry, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search_Text))

	var tagged map[int]struct{}
	if len(filter.Tag_IDs) > 0 {
		people, err := finder(ctx, filter.Tag_IDs, filter.Match_All)
		if err != nil {
			return nil, err
		}
		tagged = make(map[int]struct{}, len(people))
		for _, id := range people {
			tagged[id] = struct{}{}
		}
	}

	filtered := []models.DirectoryEntry{}
	for _, entry := range entries {
		if search != "" && !matchesSearch(entry, search) {
			continue
		}
		if tagged != nil {
			if _, ok := tagged[entry.Person_ID]; !ok {
				continue
			}
		}
		if filter.Role != "" {
			// people without an account never match a role filter
			if entry.User_Profile_ID == nil || entry.Role == nil || *entry.Role != filter.Role {
				continue
			}
		}
		filtered = append(filtered, entry)
	}

	return filtered, nil
}

func matchesSearch(entry models.DirectoryEntry, needle string) bool {
	fields := []string{entry.First_Name, entry.Last_Name}
	if entry.Email != nil {
		fields = append(fields, *entry.Email)
	}
	if entry.Family_Name != nil {
		fields = append(fields, *entry.Family_Name)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// GroupByFamily buckets entries by family. Families are ordered by name and
// the bucket of people without a family comes last. Within a family, heads
// come first, then spouses, then everyone else by first name.
func GroupByFamily(entries []models.DirectoryEntry) []models.FamilyGroup {
	byFamily := make(map[int]*models.FamilyGroup)
	var order []int
	var noFamily *models.FamilyGroup

	for _, entry := range entries {
		if entry.Family_ID == nil {
			if noFamily == nil {
				noFamily = &models.FamilyGroup{Family_Name: NoFamilyLabel}
			}
			noFamily.Members = append(noFamily.Members, entry)
			continue
		}

		id := *entry.Family_ID
		group, ok := byFamily[id]
		if !ok {
			familyID := id
			group = &models.FamilyGroup{Family_ID: &familyID}
			byFamily[id] = group
			order = append(order, id)
		}
		if group.Family_Name == "" && entry.Family_Name != nil {
			group.Family_Name = *entry.Family_Name
		}
		group.Members = append(group.Members, entry)
	}

	groups := make([]models.FamilyGroup, 0, len(order)+1)
	for _, id := range order {
		groups = append(groups, *byFamily[id])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := strings.ToLower(groups[i].Family_Name), strings.ToLower(groups[j].Family_Name)
		if a != b {
			return a < b
		}
		return *groups[i].Family_ID < *groups[j].Family_ID
	})
	if noFamily != nil {
		groups = append(groups, *noFamily)
	}

	for i := range groups {
		sortFamilyMembers(groups[i].Members)
	}

	return groups
}

func sortFamilyMembers(members []models.DirectoryEntry) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.Is_Head_Of_Family != b.Is_Head_Of_Family {
			return a.Is_Head_Of_Family
		}
		if a.Is_Spouse != b.Is_Spouse {
			return a.Is_Spouse
		}
		af, bf := strings.ToLower(a.First_Name), strings.ToLower(b.First_Name)
		if af != bf {
			return af < bf
		}
		return a.Person_ID < b.Person_ID
	})
}

// SortByPerson returns a copy of entries ordered by last name, then first.
func SortByPerson(entries []models.DirectoryEntry) []models.DirectoryEntry {
	sorted := make([]models.DirectoryEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		al, bl := strings.ToLower(a.Last_Name), strings.ToLower(b.Last_Name)
		if al != bl {
			return al < bl
		}
		af, bf := strings.ToLower(a.First_Name), strings.ToLower(b.First_Name)
		if af != bf {
			return af < bf
		}
		return a.Person_ID < b.Person_ID
	})
	return sorted
}
