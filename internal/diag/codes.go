package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// document-level
	DocInfo        Code = 1000
	DocBadTOML     Code = 1001
	DocBadPolicy   Code = 1002
	DocNoScopes    Code = 1003
	DocBadSettings Code = 1004

	// scope declarations
	ScrInfo                Code = 2000
	ScrEmptyName           Code = 2001
	ScrDuplicateScope      Code = 2002
	ScrUnknownParent       Code = 2003
	ScrParentDeclaredLater Code = 2004
	ScrSelfParent          Code = 2005
	ScrEmptyKey            Code = 2006
	ScrDuplicatePut        Code = 2007
	ScrRemoveMissing       Code = 2008
	ScrShadow              Code = 2009

	// queries
	QryInfo         Code = 3000
	QryUnknownScope Code = 3001
	QryAbsent       Code = 3002
	QryMismatch     Code = 3003
	QryEmptyKey     Code = 3004
)

var codeDescription = map[Code]string{
	UnknownCode:            "unknown problem",
	DocInfo:                "document information",
	DocBadTOML:             "document is not valid TOML",
	DocBadPolicy:           "unknown iteration policy",
	DocNoScopes:            "document declares no scopes",
	DocBadSettings:         "invalid table settings",
	ScrInfo:                "scope information",
	ScrEmptyName:           "scope without a name",
	ScrDuplicateScope:      "scope declared twice",
	ScrUnknownParent:       "parent scope does not exist",
	ScrParentDeclaredLater: "parent scope is declared after its child",
	ScrSelfParent:          "scope names itself as parent",
	ScrEmptyKey:            "binding without a key",
	ScrDuplicatePut:        "key bound twice in the same scope",
	ScrRemoveMissing:       "remove has no local binding to drop",
	ScrShadow:              "binding shadows an enclosing scope",
	QryInfo:                "query information",
	QryUnknownScope:        "query names an unknown scope",
	QryAbsent:              "queried key is not visible",
	QryMismatch:            "queried key has an unexpected value",
	QryEmptyKey:            "query without a key",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("DOC%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SCR%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("QRY%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
