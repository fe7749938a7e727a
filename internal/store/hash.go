package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DomainStatement prefixes statement hashes. The version suffix allows a
// future change of algorithm without colliding with stored IDs.
const DomainStatement = "pgfulltext/statement/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00}) // Null separator - CRITICAL for boundary safety
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StatementID computes the content-addressed ID of a DDL statement.
//
// Text is NFC-normalized and stripped of surrounding whitespace and a
// trailing semicolon, so the same statement emitted by different compiles
// (or typed by hand with composed vs decomposed accents) shares one ID.
func StatementID(stmt string) string {
	return hashWithDomain(DomainStatement, []byte(normalizeStatement(stmt)))
}

func normalizeStatement(stmt string) string {
	s := strings.TrimSpace(norm.NFC.String(stmt))
	s = strings.TrimSuffix(s, ";")
	return strings.TrimSpace(s)
}

// StatementKind classifies a statement for history filtering.
type StatementKind string

const (
	KindCreateTable StatementKind = "create_table"
	KindCreateIndex StatementKind = "create_index"
	KindDropIndex   StatementKind = "drop_index"
	KindOther       StatementKind = "other"
)

// ClassifyStatement reports the kind of stmt from its leading keywords.
func ClassifyStatement(stmt string) StatementKind {
	fields := strings.Fields(strings.ToLower(normalizeStatement(stmt)))
	if len(fields) < 2 {
		return KindOther
	}
	switch fields[0] + " " + fields[1] {
	case "create table":
		return KindCreateTable
	case "create index":
		return KindCreateIndex
	case "drop index":
		return KindDropIndex
	default:
		return KindOther
	}
}
