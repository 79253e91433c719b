package api

// BaseFields are requested on every item so listings can show icons,
// details and permissions without another round trip.
var BaseFields = []string{
	"name", "permissions", "sha1", "size", "extension", "modified_at",
	"path_collection", "shared_link", "url",
	"has_collaborations", "is_externally_owned",
}

// MergeFields returns BaseFields followed by additional, in order, without
// duplicates or empty names.
func MergeFields(additional []string) []string {
	seen := make(map[string]bool, len(BaseFields)+len(additional))
	merged := make([]string, 0, len(BaseFields)+len(additional))
	for _, list := range [][]string{BaseFields, additional} {
		for _, f := range list {
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			merged = append(merged, f)
		}
	}
	return merged
}
