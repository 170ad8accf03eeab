// Package codec provides the flat string encodings used for persisted
// collections. The session store only holds strings, so a set of group ids
// and the chat→threads reverse index are serialized as delimited text.
//
// Decode policy: malformed numeric tokens are dropped. A corrupted record
// therefore shrinks to a smaller valid collection instead of wedging the
// chat or leaking a sentinel value into the set.
package codec

import (
	"sort"
	"strconv"
	"strings"
)

// EncodeIDSet encodes a set of ids as comma-joined decimals, sorted
// ascending so repeated encodes of the same set are byte-identical.
// An empty set encodes to "".
func EncodeIDSet(set map[int64]struct{}) string {
	if len(set) == 0 {
		return ""
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// DecodeIDSet parses a comma-joined id list. Empty or blank input yields an
// empty set; tokens that do not parse as integers are dropped.
func DecodeIDSet(s string) map[int64]struct{} {
	set := make(map[int64]struct{})
	s = strings.TrimSpace(s)
	if s == "" {
		return set
	}
	for _, tok := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 64)
		if err != nil {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

// EncodeIndex encodes a map of id → id-set as comma-joined entries of the
// form "key:v1|v2|...". A key with an empty value set encodes as "key:".
func EncodeIndex(idx map[int64]map[int64]struct{}) string {
	if len(idx) == 0 {
		return ""
	}
	keys := make([]int64, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	entries := make([]string, 0, len(keys))
	for _, k := range keys {
		vals := idx[k]
		ids := make([]int64, 0, len(vals))
		for id := range vals {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = strconv.FormatInt(id, 10)
		}
		entries = append(entries, strconv.FormatInt(k, 10)+":"+strings.Join(parts, "|"))
	}
	return strings.Join(entries, ",")
}

// DecodeIndex is the inverse of EncodeIndex: split on comma, then colon,
// then pipe. An entry "key:" decodes to key → empty set. Entries whose key
// does not parse are dropped, as are unparsable values inside an entry.
func DecodeIndex(s string) map[int64]map[int64]struct{} {
	idx := make(map[int64]map[int64]struct{})
	s = strings.TrimSpace(s)
	if s == "" {
		return idx
	}
	for _, entry := range strings.Split(s, ",") {
		key, rest, _ := strings.Cut(entry, ":")
		k, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			continue
		}
		vals := make(map[int64]struct{})
		if rest != "" {
			for _, tok := range strings.Split(rest, "|") {
				id, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 64)
				if err != nil {
					continue
				}
				vals[id] = struct{}{}
			}
		}
		idx[k] = vals
	}
	return idx
}
