package postgres

import "testing"

func TestNew(t *testing.T) {
	w := New(nil, "config_changed", "app")
	if w.table != DefaultTable {
		t.Errorf("expected default table, got %q", w.table)
	}

	w = New(nil, "config_changed", "app", WithTable("settings"))
	if w.table != "settings" {
		t.Errorf("expected settings, got %q", w.table)
	}
}

func TestSQL_QuotesIdentifiers(t *testing.T) {
	if got := listenSQL("config_changed"); got != `LISTEN "config_changed"` {
		t.Errorf("unexpected listen statement %q", got)
	}
	if got := selectSQL(`weird"name`); got != `SELECT value FROM "weird""name" WHERE key = $1` {
		t.Errorf("unexpected select statement %q", got)
	}
}

func TestUpsertSQL(t *testing.T) {
	want := `INSERT INTO "settings" (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	if got := upsertSQL("settings"); got != want {
		t.Errorf("unexpected upsert statement %q", got)
	}
}
