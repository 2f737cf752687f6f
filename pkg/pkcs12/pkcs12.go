package pkcs12

import (
	"crypto/x509"
	"errors"
	"fmt"

	"software.sslmate.com/src/go-pkcs12"
)

// ErrNoCertificate indica que o arquivo PKCS12 não contém certificado
var ErrNoCertificate = errors.New("arquivo não contém certificado")

// Inspect abre um arquivo PKCS12 (A1) e retorna o certificado principal.
// A senha é validada na própria decodificação: senha errada retorna erro
// sem expor a chave privada, que nunca sai desta função.
func Inspect(pfxData []byte, password string) (*x509.Certificate, error) {
	_, certificate, _, err := pkcs12.DecodeChain(pfxData, password)
	if err != nil {
		return nil, fmt.Errorf("erro ao decodificar o certificado: %w", err)
	}
	if certificate == nil {
		return nil, ErrNoCertificate
	}
	return certificate, nil
}
