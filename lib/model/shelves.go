package model

import "fimfiction/lib/bundle"

// names of the shelves that replaced favorites and read it later
const (
	ShelfFavourites  = "Favourites"
	ShelfReadItLater = "Read It Later"
)

func shelvesOf(story *bundle.Record, key *bundle.Key) []*bundle.Record {
	set := bundle.GetOr[bundle.Set](story, key, nil)
	out := make([]*bundle.Record, 0, len(set))
	for _, v := range set {
		out = append(out, v.(*bundle.Record))
	}
	return out
}

// FindShelf looks for a shelf named name in the added and not added
// shelves of story, added is true when it was found in the added shelves.
func FindShelf(story *bundle.Record, name string) (shelf *bundle.Record, added bool, ok bool) {
	for _, s := range shelvesOf(story, StoryShelvesAdded) {
		if bundle.GetOr(s, ShelfName, "") == name {
			return s, true, true
		}
	}
	for _, s := range shelvesOf(story, StoryShelvesNotAdded) {
		if bundle.GetOr(s, ShelfName, "") == name {
			return s, false, true
		}
	}
	return nil, false, false
}

// ApplyShelfFlags derives the favorite and read later fields of a mutable
// story from its shelves, fields of shelves the story doesn't know about
// are left alone.
func ApplyShelfFlags(story *bundle.Record) error {
	_, favorite, ok := FindShelf(story, ShelfFavourites)
	if ok {
		state := NotFavorited
		if favorite {
			state = Favorited
		}
		err := story.Set(StoryFavoriteState, state)
		if err != nil {
			return err
		}
	}
	_, readLater, ok := FindShelf(story, ShelfReadItLater)
	if ok {
		err := story.Set(StoryReadLaterState, readLater)
		if err != nil {
			return err
		}
	}
	return nil
}
