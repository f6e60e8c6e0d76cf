// Package rule converts between casbin policy rules and table rows.
//
// A rule is a ptype tag plus 0 to MaxFields string fields. A row is the stored
// form: one ptype column and MaxFields nullable value columns v0..v5.
//
// Trailing empty or NULL fields carry no meaning. New enforces the width
// limit, Encode is the only way a rule becomes bind arguments, and every path
// that turns a row back into a rule goes through Decode, so two rules are the
// same exactly when their canonical forms match.
package rule
