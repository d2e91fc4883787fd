package roster

import "strings"

// Canonical column names after header normalisation.
const (
	ColUsername = "Username"
	ColPassword = "Password"
	ColName     = "Nama"
	ColNIP      = "NIP"
	ColRole     = "Role"
	ColSchool   = "Sekolah"
	ColStatus   = "Status"
	ColAvatar   = "Avatar"
)

const (
	CategoryTeaching    = "teaching"
	CategoryNonTeaching = "non_teaching"
)

var teacherKeywords = []string{"guru", "pengajar", "kepala", "pendidik"}

// Employee is one roster row. Role holds the job title as written in the
// sheet ("Guru", "Staf TU", "Admin", ...).
type Employee struct {
	Username string            `json:"username"`
	Password string            `json:"-"`
	Name     string            `json:"name"`
	NIP      string            `json:"nip"`
	Role     string            `json:"role"`
	School   string            `json:"school"`
	Status   string            `json:"employment_status"`
	Avatar   string            `json:"avatar,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// DisplayName falls back to the username when the sheet has no name.
func (e Employee) DisplayName() string {
	if strings.TrimSpace(e.Name) != "" {
		return e.Name
	}
	return e.Username
}

func (e Employee) IsAdmin() bool {
	r := strings.TrimSpace(e.Role)
	return strings.EqualFold(r, "Admin") || strings.EqualFold(r, "Superadmin")
}

// AppRole is the coarse role used for authorisation.
func (e Employee) AppRole() string {
	if e.IsAdmin() {
		return "admin"
	}
	return "staff"
}

func (e Employee) IsTeacher() bool {
	title := strings.ToLower(e.Role)
	for _, k := range teacherKeywords {
		if strings.Contains(title, k) {
			return true
		}
	}
	return false
}

func (e Employee) Category() string {
	if e.IsTeacher() {
		return CategoryTeaching
	}
	return CategoryNonTeaching
}

// Staff drops administrator accounts, which are not tracked for attendance.
func Staff(all []Employee) []Employee {
	out := make([]Employee, 0, len(all))
	for _, e := range all {
		if e.IsAdmin() {
			continue
		}
		out = append(out, e)
	}
	return out
}

func fromRecord(rec map[string]string) Employee {
	e := Employee{
		Username: rec[ColUsername],
		Password: rec[ColPassword],
		Name:     rec[ColName],
		NIP:      rec[ColNIP],
		Role:     rec[ColRole],
		School:   rec[ColSchool],
		Status:   rec[ColStatus],
		Avatar:   rec[ColAvatar],
	}
	for k, v := range rec {
		switch k {
		case ColUsername, ColPassword, ColName, ColNIP, ColRole, ColSchool, ColStatus, ColAvatar:
			continue
		}
		if e.Extra == nil {
			e.Extra = make(map[string]string)
		}
		e.Extra[k] = v
	}
	return e
}

func dummyRoster() []Employee {
	return []Employee{
		{
			Username: "guru1",
			Password: "123",
			Name:     "Bpk. Ahmad Suherman, S.Pd",
			NIP:      "198506122010011005",
			Role:     "Guru",
			School:   "SMPN 1 Padarincang",
			Status:   "PNS / ASN",
			Avatar:   "https://picsum.photos/200?random=1",
		},
		{
			Username: "admin1",
			Password: "123",
			Name:     "Hj. Siti Aminah, M.Pd",
			NIP:      "197005121995012001",
			Role:     "Admin",
			School:   "SMPN 1 Padarincang",
			Status:   "Kepala Sekolah",
			Avatar:   "https://picsum.photos/200?random=2",
		},
	}
}
