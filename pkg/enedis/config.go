package enedis

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/raterudder/linky/pkg/types"
)

const (
	loginCookie   = "iPlanetDirectoryPro"
	sessionCookie = "JSESSIONID"
)

// Config holds the portal endpoints and the portlet constants the portal's
// internal routing requires. Every value here has to be reproduced exactly
// for a request to be accepted.
type Config struct {
	LoginBaseURL string
	LoginPath    string

	APIBaseURL string
	HomePath   string
	DataPath   string

	// Realm is sent base64 encoded with the login form.
	Realm string
	// PortletID addresses the consumption widget. It is also the prefix of
	// the date fields in the data request body.
	PortletID string
	// ColumnID, ColumnPos and ColumnCount are the portlet layout hints.
	ColumnID    string
	ColumnPos   int
	ColumnCount int
}

// DefaultConfig returns the production Enedis endpoints.
func DefaultConfig() Config {
	return Config{
		LoginBaseURL: "https://espace-client-connexion.enedis.fr",
		LoginPath:    "/auth/UI/Login",
		APIBaseURL:   "https://espace-client-particuliers.enedis.fr/group/espace-particuliers",
		HomePath:     "/accueil",
		DataPath:     "/suivi-de-consommation",
		Realm:        "realm=particuliers",
		PortletID:    "lincspartdisplaycdc_WAR_lincspartcdcportlet",
		ColumnID:     "column-1",
		ColumnPos:    1,
		ColumnCount:  3,
	}
}

// Validate ensures the configuration is usable.
func (c Config) Validate() error {
	if c.LoginBaseURL == "" {
		return errors.New("login url is required")
	}
	if _, err := url.Parse(c.LoginBaseURL); err != nil {
		return fmt.Errorf("failed to parse login url (%s): %w", c.LoginBaseURL, err)
	}
	if c.APIBaseURL == "" {
		return errors.New("api url is required")
	}
	if _, err := url.Parse(c.APIBaseURL); err != nil {
		return fmt.Errorf("failed to parse api url (%s): %w", c.APIBaseURL, err)
	}
	if c.PortletID == "" {
		return errors.New("portlet id is required")
	}
	return nil
}

func (c Config) loginForm(username, password string) url.Values {
	data := url.Values{}
	data.Set("IDToken1", username)
	data.Set("IDToken2", password)
	data.Set("SunQueryParamsString", base64.StdEncoding.EncodeToString([]byte(c.Realm)))
	data.Set("encoded", "true")
	data.Set("gx_charset", "UTF-8")
	return data
}

func (c Config) dataParams(kind types.ResourceKind) url.Values {
	params := url.Values{}
	params.Set("p_p_id", c.PortletID)
	params.Set("p_p_lifecycle", "2")
	params.Set("p_p_state", "normal")
	params.Set("p_p_mode", "view")
	params.Set("p_p_resource_id", string(kind))
	params.Set("p_p_cacheability", "cacheLevelPage")
	params.Set("p_p_col_id", c.ColumnID)
	params.Set("p_p_col_pos", strconv.Itoa(c.ColumnPos))
	params.Set("p_p_col_count", strconv.Itoa(c.ColumnCount))
	return params
}

// dateFields returns the body field names for the start and end dates.
func (c Config) dateFields() (string, string) {
	prefix := "_" + c.PortletID + "_"
	return prefix + "dateDebut", prefix + "dateFin"
}
