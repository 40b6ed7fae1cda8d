package archive

import "testing"

func TestObjectName(t *testing.T) {
	tests := []struct {
		sessionID string
		filename  string
		want      string
	}{
		{"abc", "sales.csv", "uploads/abc/sales.csv"},
		{"abc", "exports/2024/sales.csv", "uploads/abc/sales.csv"},
		{"abc", `C:\Users\me\sales.csv`, "uploads/abc/sales.csv"},
		{"abc", "", "uploads/abc/upload"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := ObjectName(tt.sessionID, tt.filename); got != tt.want {
				t.Errorf("ObjectName(%q, %q) = %q, want %q", tt.sessionID, tt.filename, got, tt.want)
			}
		})
	}
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"gs://bucket/uploads/abc/sales.csv", "bucket", "uploads/abc/sales.csv", false},
		{"gs://bucket", "", "", true},
		{"gs://bucket/", "", "", true},
		{"s3://bucket/file.csv", "", "", true},
		{"/tmp/sales.csv", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("ParseURI(%q) = %q, %q; want %q, %q", tt.uri, bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}

func TestURIRoundTrip(t *testing.T) {
	uri := URI("bucket", ObjectName("s1", "sales.csv"))
	if uri != "gs://bucket/uploads/s1/sales.csv" {
		t.Errorf("URI() = %q", uri)
	}
	if got := FilenameFromURI(uri); got != "sales.csv" {
		t.Errorf("FilenameFromURI() = %q, want sales.csv", got)
	}
	if got := FilenameFromURI("gs://bucket"); got != "bucket" {
		t.Errorf("FilenameFromURI(bucket only) = %q, want bucket", got)
	}
}

func TestContentType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"sales.csv", "text/csv"},
		{"Sales.XLSX", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"noext", "text/csv"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := ContentType(tt.filename); got != tt.want {
				t.Errorf("ContentType(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
