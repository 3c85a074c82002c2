// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package models

import (
	"reflect"
	"testing"
)

func TestSpecForPrefix(t *testing.T) {
	t.Run("resolves known prefixes", func(t *testing.T) {
		spec, ok := SpecForPrefix("spotify")
		if !ok {
			t.Fatal("expected spotify prefix to resolve")
		}
		if spec.Source != SourceArtistProfile {
			t.Errorf("expected artist_profile, got %s", spec.Source)
		}

		spec, ok = SpecForPrefix("ticketmaster")
		if !ok {
			t.Fatal("expected ticketmaster prefix to resolve")
		}
		if spec.Source != SourceEventListing {
			t.Errorf("expected event_listing, got %s", spec.Source)
		}
	})

	t.Run("rejects unknown prefix", func(t *testing.T) {
		if _, ok := SpecForPrefix("bandcamp"); ok {
			t.Error("expected unknown prefix to not resolve")
		}
	})
}

func TestSpecFor(t *testing.T) {
	spec, err := SpecFor(SourceEventListing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.TrustedTable != "event_listing" {
		t.Errorf("expected trusted table event_listing, got %s", spec.TrustedTable)
	}

	if _, err := SpecFor(Source("radio")); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestDedupeKey(t *testing.T) {
	t.Run("artist profile uses artist and source_date", func(t *testing.T) {
		spec, _ := SpecForPrefix("spotify")
		key := spec.DedupeKey(spec.TaggedColumns())
		want := []string{"artist", "source_date"}
		if !reflect.DeepEqual(key, want) {
			t.Errorf("expected key %v, got %v", want, key)
		}
	})

	t.Run("event listing uses every column except source_date", func(t *testing.T) {
		spec, _ := SpecForPrefix("ticketmaster")
		key := spec.DedupeKey(spec.TaggedColumns())
		want := []string{"artist", "name", "date", "time", "venue", "location", "price_range"}
		if !reflect.DeepEqual(key, want) {
			t.Errorf("expected key %v, got %v", want, key)
		}
	})

	t.Run("event listing key follows the live header", func(t *testing.T) {
		spec, _ := SpecForPrefix("ticketmaster")
		header := []string{"artist", "city", "country", "source_date"}
		key := spec.DedupeKey(header)
		want := []string{"artist", "city", "country"}
		if !reflect.DeepEqual(key, want) {
			t.Errorf("expected key %v, got %v", want, key)
		}
	})
}

func TestTaggedColumns(t *testing.T) {
	spec, _ := SpecForPrefix("spotify")
	cols := spec.TaggedColumns()
	if cols[len(cols)-1] != SourceDateColumn {
		t.Errorf("expected last column %s, got %s", SourceDateColumn, cols[len(cols)-1])
	}
	if len(cols) != len(spec.Columns)+1 {
		t.Errorf("expected %d columns, got %d", len(spec.Columns)+1, len(cols))
	}
}
