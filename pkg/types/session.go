package types

// Session holds the two cookies that identify an authenticated Enedis portal
// session. Nothing tracks its expiry; a session is known to be stale only
// once a data request is rejected.
type Session struct {
	IPlanetDirectoryPro string `json:"iPlanetDirectoryPro"`
	JSESSIONID          string `json:"JSESSIONID"`
}

// Valid reports whether the login cookie is present. JSESSIONID may be empty
// when the portal did not hand one out.
func (s Session) Valid() bool {
	return s.IPlanetDirectoryPro != ""
}
