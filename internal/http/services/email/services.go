package email

// Services agrupa los services del dominio email.
type Services struct {
	Relay RelayService
}

// NewServices crea el agregador de services email.
func NewServices(deps RelayDeps) Services {
	return Services{
		Relay: NewRelayService(deps),
	}
}
