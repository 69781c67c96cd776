package logging

import "github.com/SamuelOrtizOspina/ALERTA-LINK/internal/interfaces"

// Logger and Field are re-exported here so callers that only deal with
// logging can write logging.Logger / logging.Field instead of reaching into
// internal/interfaces directly. Matches the teacher's original package shape.
type Logger = interfaces.Logger
type Field = interfaces.Field
