package config

// ExitCodeSuccess is returned when the scan ran and found nothing
const ExitCodeSuccess = 0

// ExitCodeOperationalError is returned when the run itself failed. For
// example the platform is unsupported, the binary couldn't be fetched, or
// the report couldn't be parsed.
const ExitCodeOperationalError = 1

// ExitCodeLeaksDetected is the default code returned when secrets are found.
// It can be adjusted through the findings exit code setting so workflows can
// tell "found something" apart from "broke".
const ExitCodeLeaksDetected = 2
