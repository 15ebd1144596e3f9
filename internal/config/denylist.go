package config

// DenylistGroup is a set of sensitive domains excluded from capture for one
// reason. Subdomains of each entry are excluded too.
type DenylistGroup struct {
	Reason  string
	Domains []string
}

var defaultDenylist = []DenylistGroup{
	{Reason: "banking", Domains: []string{
		"chase.com", "bankofamerica.com", "wellsfargo.com", "citi.com", "usbank.com",
		"capitalone.com", "ally.com", "schwab.com", "fidelity.com", "vanguard.com",
		"tdameritrade.com", "etrade.com", "robinhood.com", "paypal.com", "venmo.com",
		"zelle.com", "mint.com", "personalcapital.com", "navyfederal.org", "pnc.com",
		"regions.com", "suntrust.com", "bbt.com", "truist.com",
	}},
	{Reason: "passwords", Domains: []string{
		"1password.com", "lastpass.com", "bitwarden.com", "dashlane.com",
		"keepersecurity.com", "nordpass.com",
	}},
	{Reason: "identity", Domains: []string{
		"accounts.google.com", "login.microsoftonline.com", "login.live.com",
		"auth0.com", "okta.com", "onelogin.com", "duo.com",
	}},
	{Reason: "health", Domains: []string{
		"mychart.com", "mychartsso.com", "patient.myhealth.com", "portal.anthem.com",
		"member.cigna.com", "member.aetna.com", "member.uhc.com", "kp.org",
		"healthcare.gov", "medicare.gov",
	}},
	{Reason: "government", Domains: []string{
		"irs.gov", "ssa.gov", "login.gov", "id.me", "turbotax.intuit.com", "hrblock.com",
	}},
	{Reason: "insurance", Domains: []string{
		"geico.com", "progressive.com", "statefarm.com", "allstate.com", "usaa.com",
	}},
	{Reason: "crypto", Domains: []string{
		"coinbase.com", "binance.com", "kraken.com", "gemini.com",
	}},
	{Reason: "payroll", Domains: []string{
		"workday.com", "adp.com", "gusto.com", "paychex.com",
	}},
}

// DefaultDenylist returns a copy of the built-in sensitive-domain groups.
func DefaultDenylist() []DenylistGroup {
	out := make([]DenylistGroup, len(defaultDenylist))
	for i, g := range defaultDenylist {
		out[i] = DenylistGroup{Reason: g.Reason, Domains: append([]string(nil), g.Domains...)}
	}
	return out
}

// DefaultDenylistDomains flattens DefaultDenylist.
func DefaultDenylistDomains() []string {
	var out []string
	for _, g := range defaultDenylist {
		out = append(out, g.Domains...)
	}
	return out
}
