// Package i18n holds the UI message catalogue. German is the default language.
package i18n

import (
	"fmt"
	"strings"
)

const DefaultLang = "de"

var messages = map[string]map[string]string{
	"de": {
		"app_name":      "Synageion",
		"nav_dashboard": "Übersicht",
		"nav_users":     "Benutzer",
		"nav_pending":   "Freischaltungen",
		"nav_stats":     "Statistik",
		"nav_logs":      "Systemprotokoll",
		"nav_articles":  "Artikel",
		"nav_password":  "Passwort ändern",
		"nav_logout":    "Abmelden",
		"nav_login":     "Anmelden",
		"nav_register":  "Registrieren",

		"login_title":      "Anmeldung",
		"register_title":   "Registrierung",
		"username":         "Benutzername",
		"password":         "Passwort",
		"confirm":          "Passwort bestätigen",
		"requested_role":   "Gewünschte Rolle",
		"login_submit":     "Anmelden",
		"register_submit":  "Konto anlegen",
		"no_account":       "Noch kein Konto?",
		"have_account":     "Bereits registriert?",
		"session_expired":  "Ihre Sitzung ist wegen Inaktivität abgelaufen. Bitte melden Sie sich erneut an.",
		"logged_out":       "Sie wurden abgemeldet.",
		"registered":       "Registrierung erfolgreich. Ein Administrator muss Ihr Konto noch freischalten.",
		"forbidden_title":  "Keine Berechtigung",
		"forbidden_role":   "Für diese Aktion wird die Rolle %s benötigt.",
		"form_invalid":     "Ungültiges Formular.",
		"unauthorized":     "Nicht angemeldet.",
		"storage_error":    "Ein Datenbankfehler ist aufgetreten. Bitte versuchen Sie es später erneut.",
		"validation_error": "Bitte korrigieren Sie die markierten Felder.",

		"required":  "Pflichtfeld",
		"min":       "mindestens %s Zeichen",
		"gte":       "muss mindestens %s sein",
		"mismatch":  "stimmt nicht überein",
		"max_bytes": "höchstens %s Bytes",
		"invalid":   "ungültig",

		"user_not_found":           "Benutzer nicht gefunden.",
		"wrong_password":           "Falsches Passwort.",
		"duplicate_username":       "Der Benutzername ist bereits vergeben.",
		"invalid_role":             "Ungültige Rolle.",
		"self_modification":        "Sie können Ihr eigenes Konto hier nicht ändern.",
		"article_not_found":        "Artikel nicht gefunden.",
		"duplicate_article_number": "Die Artikelnummer ist bereits vergeben.",

		"change_password_title": "Passwort ändern",
		"current":               "Aktuelles Passwort",
		"new":                   "Neues Passwort",
		"password_changed":      "Passwort erfolgreich geändert.",

		"role_Administrator": "Administrator",
		"role_Buyer":         "Einkäufer",
		"role_Logistics":     "Logistiker",
		"role_Sales":         "Vertriebler",
		"role_Pending":       "Wartend",

		"users_title":            "Benutzerverwaltung",
		"pending_title":          "Wartende Benutzer",
		"stats_title":            "Benutzerstatistik",
		"logs_title":             "Systemprotokoll",
		"search":                 "Suche",
		"filter_role":            "Rolle",
		"all_roles":              "Alle Rollen",
		"apply":                  "Anwenden",
		"change_role":            "Rolle ändern",
		"deactivate":             "Deaktivieren",
		"reset_password":         "Passwort zurücksetzen",
		"role_changed":           "Rolle geändert.",
		"user_deactivated":       "Benutzer deaktiviert.",
		"password_reset":         "Passwort zurückgesetzt.",
		"no_pending":             "Keine wartenden Benutzer.",
		"no_users":               "Keine Benutzer gefunden.",
		"no_logs":                "Keine Einträge.",
		"total_users":            "Benutzer gesamt",
		"count":                  "Anzahl",
		"percent":                "Anteil",
		"warn_pending_many":      "Kritisch: %d Benutzer warten auf Freischaltung.",
		"warn_pending_some":      "%d Benutzer warten auf Freischaltung.",
		"warn_single_admin":      "Nur ein Administrator vorhanden. Ein Stellvertreter wird empfohlen.",
		"col_username":           "Benutzer",
		"col_role":               "Rolle",
		"col_created":            "Erstellt",
		"col_last_login":         "Letzte Anmeldung",
		"col_admin":              "Administrator",
		"col_action":             "Aktion",
		"col_target":             "Ziel",
		"col_timestamp":          "Zeitpunkt",
		"col_actions":            "Aktionen",
		"never":                  "nie",
		"self":                   "Sie",
		"action_role_change":     "Rollenänderung",
		"action_deactivate_user": "Deaktivierung",
		"action_password_reset":  "Passwort-Reset",

		"articles_title":      "Artikelstamm",
		"article_new":         "Neuer Artikel",
		"article_edit":        "Artikel bearbeiten",
		"article_number":      "Artikelnummer",
		"name":                "Bezeichnung",
		"description":         "Beschreibung",
		"min_stock":           "Mindestbestand",
		"status":              "Status",
		"status_active":       "aktiv",
		"status_inactive":     "inaktiv",
		"save":                "Speichern",
		"cancel":              "Abbrechen",
		"edit":                "Bearbeiten",
		"article_created":     "Artikel angelegt.",
		"article_updated":     "Artikel gespeichert.",
		"article_deactivated": "Artikel deaktiviert.",
		"no_articles":         "Keine Artikel vorhanden.",
		"show_inactive":       "Inaktive anzeigen",

		"welcome":             "Willkommen, %s",
		"logged_in_as":        "Angemeldet als %s (%s)",
		"dash_pending_text":   "Ihr Konto wartet auf Freischaltung durch einen Administrator.",
		"dash_admin_text":     "Verwalten Sie Benutzer, Rollen und das Systemprotokoll.",
		"dash_buyer_text":     "Pflegen Sie den Artikelstamm und die Mindestbestände.",
		"dash_logistics_text": "Ihr Logistik-Arbeitsbereich. Weitere Funktionen folgen.",
		"dash_sales_text":     "Ihr Vertriebs-Arbeitsbereich. Weitere Funktionen folgen.",
		"active_articles":     "Aktive Artikel",
		"recent_logs":         "Letzte Aktionen",
		"account_info":        "Ihr Konto",
	},
	"en": {
		"app_name":      "Synageion",
		"nav_dashboard": "Dashboard",
		"nav_users":     "Users",
		"nav_pending":   "Approvals",
		"nav_stats":     "Statistics",
		"nav_logs":      "System log",
		"nav_articles":  "Articles",
		"nav_password":  "Change password",
		"nav_logout":    "Log out",
		"nav_login":     "Log in",
		"nav_register":  "Register",

		"login_title":      "Login",
		"register_title":   "Registration",
		"username":         "Username",
		"password":         "Password",
		"confirm":          "Confirm password",
		"requested_role":   "Requested role",
		"login_submit":     "Log in",
		"register_submit":  "Create account",
		"no_account":       "No account yet?",
		"have_account":     "Already registered?",
		"session_expired":  "Your session expired due to inactivity. Please log in again.",
		"logged_out":       "You have been logged out.",
		"registered":       "Registration successful. An administrator still has to approve your account.",
		"forbidden_title":  "Access denied",
		"forbidden_role":   "This action requires the %s role.",
		"form_invalid":     "Invalid form.",
		"unauthorized":     "Not logged in.",
		"storage_error":    "A database error occurred. Please try again later.",
		"validation_error": "Please correct the highlighted fields.",

		"required":  "Required",
		"min":       "at least %s characters",
		"gte":       "must be at least %s",
		"mismatch":  "does not match",
		"max_bytes": "at most %s bytes",
		"invalid":   "invalid",

		"user_not_found":           "User not found.",
		"wrong_password":           "Wrong password.",
		"duplicate_username":       "Username is already taken.",
		"invalid_role":             "Invalid role.",
		"self_modification":        "You cannot modify your own account here.",
		"article_not_found":        "Article not found.",
		"duplicate_article_number": "Article number is already taken.",

		"change_password_title": "Change password",
		"current":               "Current password",
		"new":                   "New password",
		"password_changed":      "Password changed.",

		"role_Administrator": "Administrator",
		"role_Buyer":         "Buyer",
		"role_Logistics":     "Logistics",
		"role_Sales":         "Sales",
		"role_Pending":       "Pending",

		"users_title":            "User management",
		"pending_title":          "Pending users",
		"stats_title":            "User statistics",
		"logs_title":             "System log",
		"search":                 "Search",
		"filter_role":            "Role",
		"all_roles":              "All roles",
		"apply":                  "Apply",
		"change_role":            "Change role",
		"deactivate":             "Deactivate",
		"reset_password":         "Reset password",
		"role_changed":           "Role changed.",
		"user_deactivated":       "User deactivated.",
		"password_reset":         "Password reset.",
		"no_pending":             "No pending users.",
		"no_users":               "No users found.",
		"no_logs":                "No entries.",
		"total_users":            "Total users",
		"count":                  "Count",
		"percent":                "Share",
		"warn_pending_many":      "Critical: %d users are waiting for approval.",
		"warn_pending_some":      "%d users are waiting for approval.",
		"warn_single_admin":      "Only one administrator. A backup administrator is recommended.",
		"col_username":           "User",
		"col_role":               "Role",
		"col_created":            "Created",
		"col_last_login":         "Last login",
		"col_admin":              "Administrator",
		"col_action":             "Action",
		"col_target":             "Target",
		"col_timestamp":          "Time",
		"col_actions":            "Actions",
		"never":                  "never",
		"self":                   "you",
		"action_role_change":     "Role change",
		"action_deactivate_user": "Deactivation",
		"action_password_reset":  "Password reset",

		"articles_title":      "Articles",
		"article_new":         "New article",
		"article_edit":        "Edit article",
		"article_number":      "Article number",
		"name":                "Name",
		"description":         "Description",
		"min_stock":           "Minimum stock",
		"status":              "Status",
		"status_active":       "active",
		"status_inactive":     "inactive",
		"save":                "Save",
		"cancel":              "Cancel",
		"edit":                "Edit",
		"article_created":     "Article created.",
		"article_updated":     "Article saved.",
		"article_deactivated": "Article deactivated.",
		"no_articles":         "No articles yet.",
		"show_inactive":       "Show inactive",

		"welcome":             "Welcome, %s",
		"logged_in_as":        "Logged in as %s (%s)",
		"dash_pending_text":   "Your account is waiting for approval by an administrator.",
		"dash_admin_text":     "Manage users, roles and the system log.",
		"dash_buyer_text":     "Maintain the article master data and minimum stock.",
		"dash_logistics_text": "Your logistics workspace. More features will follow.",
		"dash_sales_text":     "Your sales workspace. More features will follow.",
		"active_articles":     "Active articles",
		"recent_logs":         "Recent actions",
		"account_info":        "Your account",
	},
}

// Supported reports whether lang has a catalogue.
func Supported(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// T translates code. Unknown languages fall back to German, unknown codes to the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// Tf translates code and formats it with args.
func Tf(lang, code string, args ...any) string {
	return fmt.Sprintf(T(lang, code), args...)
}

// DetectLanguage picks the first supported language of an Accept-Language header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		base, _, _ := strings.Cut(strings.ToLower(tag), "-")
		if Supported(base) {
			return base
		}
	}
	return DefaultLang
}
