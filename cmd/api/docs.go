package main

// @title           NFS-e Assistente API
// @version         1.0
// @description     API do assistente conversacional de emissão de NFS-e para prestadores de serviço
// @termsOfService  http://swagger.io/terms/

// @contact.name   Suporte
// @contact.email  suporte@notasimples.com.br

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Cabeçalho de autenticação JWT usando o esquema Bearer. Exemplo: "Bearer {token}"
