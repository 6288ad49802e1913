package common

// SessionCookieName is the HTTP cookie used to carry the signed owner
// session token between requests.
const SessionCookieName = "securedoc_session"
