package middleware

import tele "gopkg.in/telebot.v4"

// AdminSet is the fixed set of privileged user ids.
type AdminSet struct {
	ids   map[int64]struct{}
	order []int64
}

// NewAdminSet builds an AdminSet, dropping duplicates and non-positive ids.
func NewAdminSet(ids []int64) *AdminSet {
	s := &AdminSet{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, dup := s.ids[id]; dup {
			continue
		}
		s.ids[id] = struct{}{}
		s.order = append(s.order, id)
	}
	return s
}

// Has reports whether id is an admin. A nil set has no admins.
func (s *AdminSet) Has(id int64) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// IDs returns admin ids in configuration order.
func (s *AdminSet) IDs() []int64 {
	if s == nil {
		return nil
	}
	return append([]int64(nil), s.order...)
}

// AdminOptions defines how admin-only checks behave.
type AdminOptions struct {
	Admins   *AdminSet
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only admins reach next.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if u := c.Sender(); u != nil && opts.Admins.Has(u.ID) {
				return next(c)
			}
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
