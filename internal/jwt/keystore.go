package jwt

import "context"

// Backend es el almacenamiento de material de claves. No hace criptografía:
// lee y escribe PEM tal cual.
type Backend interface {
	// Name identifica el backend (filesystem | environment).
	Name() Source
	// Load devuelve todos los registros en un orden estable.
	Load(ctx context.Context) ([]KeyRecord, error)
	// Retire descarta el material privado de kid. Idempotente.
	Retire(ctx context.Context, kid string) error
}

// Writer lo implementan los backends que pueden persistir pares nuevos.
// El backend de entorno no lo implementa: el operador exporta las variables.
// Save nunca reemplaza un kid existente: devuelve ErrKIDExists.
type Writer interface {
	Save(ctx context.Context, kid, privatePEM, publicPEM string) error
}
