package dto

import (
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/client"
)

// ClientRequest representa os dados para cadastrar um tomador de serviço
type ClientRequest struct {
	Name     string `json:"name" binding:"required"`
	Document string `json:"document" binding:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	CityCode string `json:"city_code"`
	CityName string `json:"city_name"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Street   string `json:"street"`
	Number   string `json:"number"`
}

// ClientUpdateRequest representa os dados atualizáveis de um tomador
type ClientUpdateRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ClientResponse representa a resposta com dados de um tomador
type ClientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document"`
	Kind      string    `json:"kind"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CityCode  string    `json:"city_code,omitempty"`
	CityName  string    `json:"city_name,omitempty"`
	State     string    `json:"state,omitempty"`
	ZipCode   string    `json:"zip_code,omitempty"`
	Street    string    `json:"street,omitempty"`
	Number    string    `json:"number,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClientListResponse representa a resposta com uma lista de tomadores
type ClientListResponse struct {
	Clients    []ClientResponse `json:"clients"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// NewClientResponse cria um novo ClientResponse a partir de um tomador
func NewClientResponse(cli *client.Client) *ClientResponse {
	return &ClientResponse{
		ID:        cli.ID,
		Name:      cli.Name,
		Document:  cli.Document,
		Kind:      string(cli.Kind),
		Email:     cli.Email,
		Phone:     cli.Phone,
		CityCode:  cli.CityCode,
		CityName:  cli.CityName,
		State:     cli.State,
		ZipCode:   cli.ZipCode,
		Street:    cli.Street,
		Number:    cli.Number,
		CreatedAt: cli.CreatedAt,
		UpdatedAt: cli.UpdatedAt,
	}
}

// NewClientListResponse cria um novo ClientListResponse
func NewClientListResponse(clients []*client.Client, total, page, pageSize int) *ClientListResponse {
	response := &ClientListResponse{
		Clients:    make([]ClientResponse, 0, len(clients)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: calculateTotalPages(total, pageSize),
	}

	for _, cli := range clients {
		response.Clients = append(response.Clients, *NewClientResponse(cli))
	}

	return response
}
