package api

// TokenState é o estado da credencial de acesso do ponto de vista do cliente.
//
//	valid --401--> refreshing --ok--> valid
//	                          --falha--> expired (tokens limpos, redirect para /login)
type TokenState string

const (
	TokenValid      TokenState = "valid"
	TokenRefreshing TokenState = "refreshing"
	TokenExpired    TokenState = "expired"
)

// TokenEvent dispara transições de TokenState
type TokenEvent string

const (
	EventUnauthorized     TokenEvent = "unauthorized"
	EventRefreshSucceeded TokenEvent = "refresh_succeeded"
	EventRefreshFailed    TokenEvent = "refresh_failed"
	EventTokensSet        TokenEvent = "tokens_set"
)

// NextTokenState é a função de transição; não tem efeitos colaterais.
func NextTokenState(current TokenState, event TokenEvent) TokenState {
	switch event {
	case EventTokensSet:
		return TokenValid
	case EventUnauthorized:
		// expired também volta a tentar: o usuário pode ter logado de novo
		if current == TokenValid || current == TokenExpired {
			return TokenRefreshing
		}
		return current
	case EventRefreshSucceeded:
		if current == TokenRefreshing {
			return TokenValid
		}
		return current
	case EventRefreshFailed:
		return TokenExpired
	default:
		return current
	}
}
