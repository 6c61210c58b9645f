// Package migration holds the value objects of the bulk contact migration
// engine: target schema fields, column and value mappings, resolved rows,
// per-row outcomes and the final report.
package migration

// Kind describes how a target field's cell values are handled.
type Kind string

const (
	// KindText passes the raw cell value through unchanged.
	KindText Kind = "text"
	// KindDate passes the raw cell value through for store-side parsing.
	KindDate Kind = "date"
	// KindReference resolves cell values against a directory of entities.
	KindReference Kind = "reference"
	// KindEnum resolves cell values against a fixed list of states.
	KindEnum Kind = "enum"
)

// TargetField is one attribute of the contact schema a source column can be
// mapped onto.
type TargetField struct {
	Key       string
	Label     string
	Synonyms  []string
	Kind      Kind
	Mandatory bool
}

// Field keys of the contact schema.
const (
	FieldFirstName       = "firstName"
	FieldLastName        = "lastName"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldStatus          = "statusId"
	FieldPlatform        = "platformId"
	FieldConfirmingAgent = "confirmingAgentId"
	FieldOperator        = "operatorId"
	FieldSource          = "sourceId"
	FieldContractState   = "contractState"
	FieldLegacyID        = "legacyId"
	FieldNotes           = "notes"
	FieldAppointmentDate = "appointmentDate"
)

// ContactFields returns the target schema in display order. Synonyms carry
// the header wordings of the legacy exports, French included.
func ContactFields() []TargetField {
	return []TargetField{
		{Key: FieldFirstName, Label: "First name", Kind: KindText,
			Synonyms: []string{"prenom", "firstname", "first_name", "givenname"}},
		{Key: FieldLastName, Label: "Last name", Kind: KindText,
			Synonyms: []string{"nom", "lastname", "last_name", "surname", "familyname"}},
		{Key: FieldEmail, Label: "Email", Kind: KindText,
			Synonyms: []string{"courriel", "mail", "emailaddress", "e-mail"}},
		{Key: FieldPhone, Label: "Phone", Kind: KindText,
			Synonyms: []string{"telephone", "tel", "mobile", "portable", "phonenumber"}},
		{Key: FieldStatus, Label: "Status", Kind: KindReference, Mandatory: true,
			Synonyms: []string{"statut", "status", "etat"}},
		{Key: FieldPlatform, Label: "Platform", Kind: KindReference,
			Synonyms: []string{"plateforme", "platform"}},
		{Key: FieldConfirmingAgent, Label: "Confirming agent", Kind: KindReference,
			Synonyms: []string{"confirmateur", "agent", "confirmedby"}},
		{Key: FieldOperator, Label: "Operator", Kind: KindReference,
			Synonyms: []string{"operateur", "operator", "teleoperateur"}},
		{Key: FieldSource, Label: "Source", Kind: KindReference,
			Synonyms: []string{"source", "origine", "provenance"}},
		{Key: FieldContractState, Label: "Contract state", Kind: KindEnum,
			Synonyms: []string{"etatcontrat", "contrat", "contractstatus"}},
		{Key: FieldLegacyID, Label: "Legacy identifier", Kind: KindText,
			Synonyms: []string{"ancienid", "legacyid", "externalid", "idexterne"}},
		{Key: FieldNotes, Label: "Notes", Kind: KindText,
			Synonyms: []string{"note", "commentaire", "remarques", "comments"}},
		{Key: FieldAppointmentDate, Label: "Appointment date", Kind: KindDate,
			Synonyms: []string{"rendezvous", "rdv", "daterdv", "appointment"}},
	}
}

// ContractStates returns the constrained enumeration used by the contract
// state field, in directory form so the value resolver treats it uniformly.
func ContractStates() []string {
	return []string{"pending", "signed", "cancelled"}
}
