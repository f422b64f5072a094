package inline

// Family groups call forms by where the expected value lives
type Family int

const (
	FamilyInline Family = iota // expected value is the call argument
	FamilyDisk                 // expected value is a snapshot file entry
)

// Form is a recognized assertion call
type Form int

const (
	FormToBe Form = iota
	FormToBeTODO
	FormToMatchDisk
	FormToMatchDiskTODO
)

// Family returns form family
func (f Form) Family() Family {
	if f == FormToMatchDisk || f == FormToMatchDiskTODO {
		return FamilyDisk
	}
	return FamilyInline
}

// IsTODO returns true for forms that are not pinned yet
func (f Form) IsTODO() bool {
	return f == FormToBeTODO || f == FormToMatchDiskTODO
}

func (f Form) String() string {
	switch f {
	case FormToBe:
		return "toBe"
	case FormToBeTODO:
		return "toBe_TODO"
	case FormToMatchDisk:
		return "toMatchDisk"
	}
	return "toMatchDisk_TODO"
}

type formName struct {
	form   Form
	pinned string
}

// forms maps recognized call names, in both JVM and Go casing, to their pinned name
var forms = map[string]formName{
	"toBe":             {FormToBe, "toBe"},
	"ToBe":             {FormToBe, "ToBe"},
	"toBe_TODO":        {FormToBeTODO, "toBe"},
	"ToBe_TODO":        {FormToBeTODO, "ToBe"},
	"ToBeTODO":         {FormToBeTODO, "ToBe"},
	"toMatchDisk":      {FormToMatchDisk, "toMatchDisk"},
	"ToMatchDisk":      {FormToMatchDisk, "ToMatchDisk"},
	"toMatchDisk_TODO": {FormToMatchDiskTODO, "toMatchDisk"},
	"ToMatchDisk_TODO": {FormToMatchDiskTODO, "ToMatchDisk"},
	"ToMatchDiskTODO":  {FormToMatchDiskTODO, "ToMatchDisk"},
}

// Marker is a trailing comment that changes rewrite policy
type Marker int

const (
	MarkerNone    Marker = iota
	MarkerOnce           // rewrite once, then the marker is removed
	MarkerForever        // rewrite on every run
)

const (
	markerOnce    = "selfieonce"
	markerForever = "selfiewrite"
)
