package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d := NewDB()
	if err := d.Open(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("open: %v", err)
	}
	go d.Start()
	t.Cleanup(func() {
		close(d.RequestChan)
		d.Close()
	})
	return d
}

func await(t *testing.T, d *DB, want EventType) Response {
	t.Helper()
	select {
	case resp := <-d.ResponseChan:
		if resp.Op != want {
			t.Fatalf("expected response op %d, got %d", want, resp.Op)
		}
		if resp.Err != nil {
			t.Fatalf("response error: %v", resp.Err)
		}
		return resp
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for store response")
		return Response{}
	}
}

func TestFavorites(t *testing.T) {
	d := openTestDB(t)

	d.RequestChan <- Request{Op: FetchFavorites}
	if resp := await(t, d, FetchFavorites); len(resp.Favorites) != 0 {
		t.Fatalf("fresh db has favorites: %v", resp.Favorites)
	}

	d.RequestChan <- Request{Op: AddFavorite, Path: "/home/u/docs"}
	resp := await(t, d, FetchFavorites) // mutations answer with a fresh fetch
	if len(resp.Favorites) != 1 || resp.Favorites[0] != "/home/u/docs" {
		t.Fatalf("after add: %v", resp.Favorites)
	}

	// Duplicate adds are ignored.
	d.RequestChan <- Request{Op: AddFavorite, Path: "/home/u/docs"}
	if resp := await(t, d, FetchFavorites); len(resp.Favorites) != 1 {
		t.Fatalf("duplicate favorite stored: %v", resp.Favorites)
	}

	d.RequestChan <- Request{Op: RemoveFavorite, Path: "/home/u/docs"}
	if resp := await(t, d, FetchFavorites); len(resp.Favorites) != 0 {
		t.Fatalf("after remove: %v", resp.Favorites)
	}
}

func TestSettings(t *testing.T) {
	d := openTestDB(t)

	d.RequestChan <- Request{Op: SaveSetting, Key: "sort", Value: "size"}
	resp := await(t, d, FetchSettings)
	if resp.Settings["sort"] != "size" {
		t.Fatalf("setting not stored: %v", resp.Settings)
	}

	// Overwrite
	d.RequestChan <- Request{Op: SaveSetting, Key: "sort", Value: "name"}
	resp = await(t, d, FetchSettings)
	if resp.Settings["sort"] != "name" {
		t.Fatalf("setting not replaced: %v", resp.Settings)
	}
}

func TestMediaUpsertAndSearch(t *testing.T) {
	d := openTestDB(t)

	media := []Media{
		{Path: "/m/song.mp3", Kind: "audio", Title: "Blue Train", Artist: "Coltrane", DurationSecs: 643, CreatedAt: time.Now()},
		{Path: "/m/photo.jpg", Kind: "image", Title: "Blue Sky", Width: 4000, Height: 3000},
		{Path: "/m/clip.mp4", Kind: "video", Title: "Vacation"},
	}
	for i := range media {
		d.RequestChan <- Request{Op: UpsertMedia, Media: &media[i]}
		await(t, d, UpsertMedia)
	}

	// Term match across kinds
	d.RequestChan <- Request{Op: SearchMedia, Query: "Blue"}
	resp := await(t, d, SearchMedia)
	if len(resp.Media) != 2 {
		t.Fatalf("expected 2 results for Blue, got %d", len(resp.Media))
	}

	// Kind restriction
	d.RequestChan <- Request{Op: SearchMedia, Query: "Blue", Kinds: "audio"}
	resp = await(t, d, SearchMedia)
	if len(resp.Media) != 1 || resp.Media[0].Kind != "audio" {
		t.Fatalf("kind filter: %+v", resp.Media)
	}
	if resp.Media[0].Artist != "Coltrane" || resp.Media[0].DurationSecs != 643 {
		t.Errorf("metadata lost: %+v", resp.Media[0])
	}

	// Upsert replaces on path conflict
	media[0].Title = "Giant Steps"
	d.RequestChan <- Request{Op: UpsertMedia, Media: &media[0]}
	await(t, d, UpsertMedia)
	d.RequestChan <- Request{Op: SearchMedia, Query: "Giant"}
	resp = await(t, d, SearchMedia)
	if len(resp.Media) != 1 || resp.Media[0].Path != "/m/song.mp3" {
		t.Fatalf("upsert did not replace: %+v", resp.Media)
	}
}

func TestSavedSearches(t *testing.T) {
	d := openTestDB(t)

	d.RequestChan <- Request{Op: SaveSearch, Search: &SavedSearch{Name: "jazz", Query: "coltrane", Kinds: "audio"}}
	resp := await(t, d, FetchSearches)
	if len(resp.Searches) != 1 {
		t.Fatalf("search not saved: %+v", resp.Searches)
	}
	s := resp.Searches[0]
	if s.Name != "jazz" || s.Query != "coltrane" || s.Kinds != "audio" {
		t.Errorf("saved search fields: %+v", s)
	}
	if s.ID == 0 {
		t.Error("saved search has no id")
	}

	d.RequestChan <- Request{Op: DeleteSearch, ID: s.ID}
	if resp := await(t, d, FetchSearches); len(resp.Searches) != 0 {
		t.Fatalf("search not deleted: %+v", resp.Searches)
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	d := NewDB()
	path := filepath.Join(t.TempDir(), "deep", "nested", "app.db")
	if err := d.Open(path); err != nil {
		t.Fatalf("open with missing parents: %v", err)
	}
	d.Close()
}
