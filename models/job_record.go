package models

// JobRecord represents one dental-lab job tracked through request, design, milling and delivery.
// Every column except the identifier is nullable text; dates are stored as YYYY-MM-DD strings.
type JobRecord struct {
	Identifier   int     `gorm:"column:identifier;type:integer;primaryKey;autoIncrement:false" json:"identifier"`
	Notes        *string `gorm:"column:asunto_detalles;type:text" json:"notes"`
	BlockBucket  *string `gorm:"column:bloques_usados;type:text" json:"block_count_bucket"`
	DesignMode   *string `gorm:"column:diseno;type:text" json:"design_mode"`
	Doctor       *string `gorm:"column:doctor;type:text" json:"doctor"`
	State        *string `gorm:"column:estado;type:text" json:"state"`
	DesignDate   *string `gorm:"column:fecha_diseno;type:text" json:"design_date"`
	MillingDate  *string `gorm:"column:fecha_fresado;type:text" json:"milling_date"`
	IntakeDate   *string `gorm:"column:fecha_ingreso;type:text" json:"intake_date"`
	DeliveryDate *string `gorm:"column:fecha_entrega;type:text" json:"delivery_date"`
	Material     *string `gorm:"column:material;type:text" json:"material"`
	PatientName  *string `gorm:"column:nombre_paciente;type:text" json:"patient_name"`
	Branch       *string `gorm:"column:sucursal;type:text" json:"branch"`
	Technician   *string `gorm:"column:tons_a_cargo;type:text" json:"technician"`
}

// TableName specifies the table name for the JobRecord model
func (JobRecord) TableName() string {
	return "registros"
}

// Columns lists the persisted column names in the positional order of a
// spreadsheet export. Bulk ingestion assigns names by this order.
var Columns = []string{
	"identifier",
	"asunto_detalles",
	"bloques_usados",
	"diseno",
	"doctor",
	"estado",
	"fecha_diseno",
	"fecha_fresado",
	"fecha_ingreso",
	"fecha_entrega",
	"material",
	"nombre_paciente",
	"sucursal",
	"tons_a_cargo",
}

// MutableValues returns every column except the identifier, keyed by column name.
// Nil pointers are kept so that an update writes NULL.
func (r JobRecord) MutableValues() map[string]interface{} {
	return map[string]interface{}{
		"asunto_detalles": r.Notes,
		"bloques_usados":  r.BlockBucket,
		"diseno":          r.DesignMode,
		"doctor":          r.Doctor,
		"estado":          r.State,
		"fecha_diseno":    r.DesignDate,
		"fecha_fresado":   r.MillingDate,
		"fecha_ingreso":   r.IntakeDate,
		"fecha_entrega":   r.DeliveryDate,
		"material":        r.Material,
		"nombre_paciente": r.PatientName,
		"sucursal":        r.Branch,
		"tons_a_cargo":    r.Technician,
	}
}

// SetColumn assigns a nullable text value by persisted column name.
// It reports false for the identifier and for unknown columns.
func (r *JobRecord) SetColumn(column string, value *string) bool {
	switch column {
	case "asunto_detalles":
		r.Notes = value
	case "bloques_usados":
		r.BlockBucket = value
	case "diseno":
		r.DesignMode = value
	case "doctor":
		r.Doctor = value
	case "estado":
		r.State = value
	case "fecha_diseno":
		r.DesignDate = value
	case "fecha_fresado":
		r.MillingDate = value
	case "fecha_ingreso":
		r.IntakeDate = value
	case "fecha_entrega":
		r.DeliveryDate = value
	case "material":
		r.Material = value
	case "nombre_paciente":
		r.PatientName = value
	case "sucursal":
		r.Branch = value
	case "tons_a_cargo":
		r.Technician = value
	default:
		return false
	}
	return true
}

// Text returns a pointer to s, or nil when s is empty.
func Text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Value dereferences a nullable column, mapping NULL to "".
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
