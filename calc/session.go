/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package calc

import "github.com/humaidq/echocalc/catalog"

// BSAField is the name of the body-surface area field. Panels that do not
// declare it can still reference it through the session value.
const BSAField = "bsa"

// Session is the state shared by every panel: the patient sex and the last
// computed body-surface area.
type Session struct {
	Sex catalog.Sex `json:"sex"`
	BSA float64     `json:"bsa"`
}

// DefaultSession is used before anything has been stored.
func DefaultSession() Session {
	return Session{Sex: catalog.SexMale}
}
