package audit

import "time"

// Record is an immutable, append-only admin audit entry.
//
// Invariants:
// - Records are never updated or deleted.
// - CreatedAt is assigned once, at write time.
// - AdminID and TargetID are optional; a nil AdminID renders as "Unknown User".
//
// Storage (Postgres): table admin_audit, INSERT-only.
type Record struct {
	ID      int64  `json:"id" db:"id"`
	AdminID *int64 `json:"admin_id,omitempty" db:"admin_id"`

	// ActivityTitle is a short label such as "Specialization Deleted".
	// It is matched by substring at query time; no enum is enforced.
	ActivityTitle string `json:"activity_title" db:"activity_title"`
	ModuleType    string `json:"module_type" db:"module_type"`

	// Message is expected to mention the affected entity's display name.
	Message string `json:"message" db:"message"`

	TargetType string `json:"target_type" db:"target_type"`
	TargetID   *int64 `json:"target_id,omitempty" db:"target_id"`

	// Snapshots before/after the action. Create has no OldValue, delete has no NewValue.
	OldValue map[string]any `json:"old_value,omitempty" db:"old_value"`
	NewValue map[string]any `json:"new_value,omitempty" db:"new_value"`

	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent string `json:"user_agent,omitempty" db:"user_agent"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Entry is the caller-supplied part of a Record.
type Entry struct {
	AdminID       *int64
	ActivityTitle string
	Message       string
	ModuleType    string
	TargetType    string
	TargetID      *int64
	OldValue      map[string]any
	NewValue      map[string]any
}

// Target categories. Stored as text.
const (
	TargetDentist            = "dentist"
	TargetPatient            = "patient"
	TargetAdmin              = "admin"
	TargetAppointment        = "appointment"
	TargetTreatment          = "treatment"
	TargetInventoryItem      = "inventory-item"
	TargetBilling            = "billing"
	TargetUser               = "user"
	TargetSetting            = "setting"
	TargetRole               = "role"
	TargetPermission         = "permission"
	TargetSpecialization     = "specialization"
	TargetTreatmentType      = "treatment-type"
	TargetTreatmentRecord    = "treatment-record"
	TargetClinicAvailability = "clinic-availability"
	TargetClosureException   = "closure-exception"
)

var targetLabels = map[string]string{
	TargetDentist:            "Dentist",
	TargetPatient:            "Patient",
	TargetAdmin:              "Administrator",
	TargetAppointment:        "Appointment",
	TargetTreatment:          "Treatment",
	TargetInventoryItem:      "Inventory Item",
	TargetBilling:            "Billing",
	TargetUser:               "User",
	TargetSetting:            "Setting",
	TargetRole:               "Role",
	TargetPermission:         "Permission",
	TargetSpecialization:     "Specialization",
	TargetTreatmentType:      "Treatment Type",
	TargetTreatmentRecord:    "Treatment Record",
	TargetClinicAvailability: "Clinic Availability",
	TargetClosureException:   "Closure Exception",
}

// IsKnownTarget reports whether t is one of the target categories above.
func IsKnownTarget(t string) bool {
	_, ok := targetLabels[t]
	return ok
}

// TargetLabel returns the display label for a target category, or t itself if unknown.
func TargetLabel(t string) string {
	if l, ok := targetLabels[t]; ok {
		return l
	}
	return t
}

// Module types group records by functional area.
const (
	ModuleClinicManagement      = "clinic-management"
	ModuleServicesManagement    = "services-management"
	ModuleAppointmentManagement = "appointment-management"
	ModulePatientManagement     = "patient-management"
	ModuleDentistManagement     = "dentist-management"
	ModuleUserManagement        = "user-management"
)
