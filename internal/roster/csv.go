package roster

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var headerAliases = map[string]string{
	"username": ColUsername, "user": ColUsername, "id": ColUsername,
	"password": ColPassword, "pass": ColPassword, "sandi": ColPassword, "katasandi": ColPassword, "pin": ColPassword,
	"nama": ColName, "name": ColName, "namalengkap": ColName, "fullname": ColName,
	"nip": ColNIP, "nomorinduk": ColNIP, "idpegawai": ColNIP,
	"role": ColRole, "peran": ColRole, "jabatan": ColRole, "level": ColRole, "akses": ColRole,
	"sekolah": ColSchool, "school": ColSchool, "unitkerja": ColSchool, "instansi": ColSchool,
	"status": ColStatus, "statuspegawai": ColStatus, "kepegawaian": ColStatus,
	"avatar": ColAvatar, "foto": ColAvatar, "photo": ColAvatar, "gambar": ColAvatar, "urlfoto": ColAvatar,
}

// NormalizeHeader maps a sheet header to its canonical column, ignoring case
// and punctuation. Unknown headers come back unchanged.
func NormalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if c, ok := headerAliases[b.String()]; ok {
		return c
	}
	return h
}

// Parse decodes a roster CSV export. A document with fewer than two
// non-blank lines yields an empty roster.
func Parse(r io.Reader) ([]Employee, error) {
	dec := transform.NewReader(r, xunicode.BOMOverride(encoding.Nop.NewDecoder()))
	cr := csv.NewReader(dec)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var headers []string
	var out []Employee
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if blank(fields) {
			continue
		}
		if headers == nil {
			headers = make([]string, len(fields))
			for i, h := range fields {
				headers[i] = NormalizeHeader(clean(h))
			}
			continue
		}

		rec := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(fields) {
				continue
			}
			rec[h] = clean(fields[i])
		}
		out = append(out, fromRecord(rec))
	}
	return out, nil
}

func clean(s string) string {
	return strings.TrimFunc(s, unicode.IsSpace)
}

func blank(fields []string) bool {
	for _, f := range fields {
		if clean(f) != "" {
			return false
		}
	}
	return true
}
