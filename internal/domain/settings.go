package domain

type Settings struct {
	ID             string   `db:"id" json:"id"`
	StoreNameEN    string   `db:"store_name_en" json:"store_name_en"`
	StoreNameAR    string   `db:"store_name_ar" json:"store_name_ar"`
	Phone          string   `db:"phone" json:"phone"`
	WhatsApp       string   `db:"whatsapp" json:"whatsapp"`
	Email          string   `db:"email" json:"email"`
	AddressEN      string   `db:"address_en" json:"address_en"`
	AddressAR      string   `db:"address_ar" json:"address_ar"`
	BranchesJSON   string   `db:"branches_json" json:"-"`
	Branches       []string `db:"-" json:"branches"`
	WorkingHoursEN string   `db:"working_hours_en" json:"working_hours_en"`
	WorkingHoursAR string   `db:"working_hours_ar" json:"working_hours_ar"`
	AnnouncementEN string   `db:"announcement_en" json:"announcement_en"`
	AnnouncementAR string   `db:"announcement_ar" json:"announcement_ar"`
	UpdatedAt      string   `db:"updated_at" json:"updated_at"`
}

// HasBranch reports whether name is a configured pickup branch.
// An empty branch list accepts any branch.
func (s Settings) HasBranch(name string) bool {
	if len(s.Branches) == 0 {
		return true
	}
	for _, b := range s.Branches {
		if b == name {
			return true
		}
	}
	return false
}
