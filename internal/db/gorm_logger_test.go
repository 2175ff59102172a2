package db

import "testing"

func TestSummarizeSQL(t *testing.T) {
	cases := []struct{ in, op, table string }{
		{"SELECT * FROM `users` WHERE id = ?", "SELECT", "users"},
		{"insert into bucket_configs (id) values (?)", "INSERT", "bucket_configs"},
		{"UPDATE path_metadata SET is_public = ? WHERE id = ?", "UPDATE", "path_metadata"},
		{"DELETE FROM sessions WHERE expires_at < ?", "DELETE", "sessions"},
	}
	for _, c := range cases {
		op, table := summarizeSQL(c.in)
		if op != c.op || table != c.table {
			t.Fatalf("summarizeSQL(%q)=%q,%q want %q,%q", c.in, op, table, c.op, c.table)
		}
	}
}
