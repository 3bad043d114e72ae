package library

import (
	"slices"

	"library-engine/internal/domain/catalog"
	"library-engine/internal/domain/member"
)

// shelf keeps the items of one kind keyed by identifier in insertion order.
type shelf struct {
	kind  catalog.Kind
	byID  map[string]*catalog.Item
	order []*catalog.Item
}

func newShelf(kind catalog.Kind) *shelf {
	return &shelf{kind: kind, byID: make(map[string]*catalog.Item)}
}

func (s *shelf) get(id string) (*catalog.Item, bool) {
	item, ok := s.byID[id]
	return item, ok
}

func (s *shelf) add(item *catalog.Item) bool {
	if _, exists := s.byID[item.ID]; exists {
		return false
	}
	s.byID[item.ID] = item
	s.order = append(s.order, item)
	return true
}

func (s *shelf) remove(id string) {
	item, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	s.order = slices.DeleteFunc(s.order, func(i *catalog.Item) bool { return i == item })
}

func (s *shelf) reset() {
	s.byID = make(map[string]*catalog.Item)
	s.order = nil
}

func (s *shelf) all() []*catalog.Item {
	return s.order
}

func (s *shelf) search(keyword string) []*catalog.Item {
	var out []*catalog.Item
	for _, item := range s.order {
		if item.Matches(keyword) {
			out = append(out, item)
		}
	}
	return out
}

// roster keeps users keyed by their case-insensitive name.
type roster struct {
	byKey map[string]*member.User
	order []*member.User
}

func newRoster() *roster {
	return &roster{byKey: make(map[string]*member.User)}
}

func (r *roster) get(name string) (*member.User, bool) {
	u, ok := r.byKey[member.Key(name)]
	return u, ok
}

func (r *roster) add(u *member.User) bool {
	if _, exists := r.byKey[u.Key()]; exists {
		return false
	}
	r.byKey[u.Key()] = u
	r.order = append(r.order, u)
	return true
}

// insert puts u back at position idx.
func (r *roster) insert(idx int, u *member.User) {
	r.byKey[u.Key()] = u
	r.order = slices.Insert(r.order, min(idx, len(r.order)), u)
}

func (r *roster) remove(u *member.User) int {
	idx := slices.Index(r.order, u)
	if idx < 0 {
		return -1
	}
	delete(r.byKey, u.Key())
	r.order = slices.Delete(r.order, idx, idx+1)
	return idx
}

func (r *roster) reset() {
	r.byKey = make(map[string]*member.User)
	r.order = nil
}

func (r *roster) all() []*member.User {
	return r.order
}
