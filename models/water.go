package models

// Types in this file mirror the JSON contract of the billing backend.

// Unit is a residential unit (lote).
type Unit struct {
	CodigoLote int    `json:"codigo_lote"`
	NomeLote   string `json:"nome_lote"`
	Codinome01 string `json:"codinome01,omitempty"`
}

// WaterBill is one monthly bill of a unit as computed by the backend.
type WaterBill struct {
	ID                    string  `json:"id"`
	CodigoLote            int     `json:"codigo_lote"`
	DataRef               string  `json:"data_ref"`
	DataDisplay           string  `json:"data_display"`
	Leitura               float64 `json:"leitura"`
	ConsumoMedidoM3       float64 `json:"consumo_medido_m3"`
	ConsumoEsgotoM3       float64 `json:"consumo_esgoto_m3"`
	TotalEsgotoRS         float64 `json:"total_esgoto_rs"`
	ConsumoProduzidoM3    float64 `json:"consumo_produzido_m3"`
	ConsumoCompradoM3     float64 `json:"consumo_comprado_m3"`
	CobradoTotalAguaRS    float64 `json:"cobrado_total_agua_rs"`
	CobradoAreaComumRS    float64 `json:"cobrado_area_comum_rs"`
	CobradoOutrosGastosRS float64 `json:"cobrado_outros_gastos_rs"`
	TotalContaRS          float64 `json:"total_conta_rs"`
	FaixaEsgoto           string  `json:"faixa_esgoto"`
	TarifaEsgoto          float64 `json:"tarifa_esgoto"`
	DeduzirEsgoto         float64 `json:"deduzir_esgoto"`
	FaixaAgua             string  `json:"faixa_agua"`
	TarifaAgua            float64 `json:"tarifa_agua"`
	DeduzirAgua           float64 `json:"deduzir_agua"`
	CobradoAguaProdRS     float64 `json:"cobrado_agua_prod_rs"`
	PrecoM3CompradoRS     float64 `json:"preco_m3_comprado_rs"`
	CobradoAguaCompRS     float64 `json:"cobrado_agua_comp_rs"`
	DataLeitura           string  `json:"data_leitura"`
	MesMensagem           string  `json:"mes_mensagem"`
	MesConsumoMediaM3     float64 `json:"mes_consumo_media_m3"`
	MesConsumoMedianaM3   float64 `json:"mes_consumo_mediana_m3"`
}

// TotalWaterM3 is produced plus purchased water for the bill.
func (b WaterBill) TotalWaterM3() float64 {
	return b.ConsumoProduzidoM3 + b.ConsumoCompradoM3
}

// UnitSummary is one row of a monthly summary.
type UnitSummary struct {
	CodigoLote    int     `json:"codigo_lote"`
	DisplayName   string  `json:"display_name"`
	CostRS        float64 `json:"cost_rs"`
	ConsumptionM3 float64 `json:"consumption_m3"`
}

// MonthlySummary aggregates condominium cost and consumption for a month.
type MonthlySummary struct {
	MonthYear               string        `json:"month_year"`
	TotalCondoCostRS        float64       `json:"total_condo_cost_rs"`
	TotalCondoConsumptionM3 float64       `json:"total_condo_consumption_m3"`
	UnitDetails             []UnitSummary `json:"unit_details"`
}

// LatestReading is the baseline of a unit: its last processed reading.
type LatestReading struct {
	CodigoLote                  int     `json:"codigo_lote"`
	NomeLote                    string  `json:"nome_lote"`
	LeituraAnterior             float64 `json:"leitura_anterior"`
	DataRef                     *string `json:"data_ref"`
	ConsumoMedidoM3             float64 `json:"consumo_medido_m3"`
	MediaMovel6MesesAnteriores  float64 `json:"media_movel_6_meses_anteriores"`
	MediaMovel12MesesAnteriores float64 `json:"media_movel_12_meses_anteriores"`
}

// ProductionPayload is the month-level part of a readings submission.
type ProductionPayload struct {
	DataRef    *string  `json:"data_ref"`
	ProducaoM3 *float64 `json:"producao_m3"`
	OutrosRS   *float64 `json:"outros_rs"`
	CompraRS   *float64 `json:"compra_rs"`
}

// UnitReadingPayload is one unit line of a readings submission.
type UnitReadingPayload struct {
	CodigoLote       int      `json:"codigo_lote"`
	DataLeituraAtual *string  `json:"data_leitura_atual"`
	LeituraAtual     *float64 `json:"leitura_atual"`
	Consumo          *float64 `json:"consumo"`
}

// ProcessReadingsPayload is the body of POST /api/process-readings.
type ProcessReadingsPayload struct {
	ProductionData ProductionPayload    `json:"production_data"`
	UnitReadings   []UnitReadingPayload `json:"unit_readings"`
}

// PipelineResult is the per-unit billing result computed by the backend.
type PipelineResult struct {
	CodigoLote    int      `json:"codigo_lote"`
	NomeLote      string   `json:"nome_lote"`
	ProdRS        *float64 `json:"prod_rs"`
	EsgotoRS      *float64 `json:"esgoto_rs"`
	CompRS        *float64 `json:"comp_rs"`
	OutrosRS      *float64 `json:"outros_rs"`
	TotalRS       *float64 `json:"total_rs"`
	FaixaAgua     *string  `json:"faixa_agua"`
	TarifaAgua    *float64 `json:"tarifa_agua"`
	DeduzirAgua   *float64 `json:"deduzir_agua"`
	FaixaEsgoto   *string  `json:"faixa_esgoto"`
	TarifaEsgoto  *float64 `json:"tarifa_esgoto"`
	DeduzirEsgoto *float64 `json:"deduzir_esgoto"`
	Mensagem      *string  `json:"mensagem"`
}

// Backend log statuses.
const (
	BackendLogOK    = "OK"
	BackendLogError = "ERRO"
)

// BackendLog is a structured server-side validation outcome.
type BackendLog struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ProcessReadingsResponse is the body returned by POST /api/process-readings.
// A nil Data means the backend pipeline failed, even on HTTP 200.
type ProcessReadingsResponse struct {
	Message string           `json:"message"`
	Logs    []BackendLog     `json:"logs"`
	Data    []PipelineResult `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// BackendUser is the user profile returned by the backend on login.
type BackendUser struct {
	ID            int64  `json:"id"`
	NomeUsuario   string `json:"nome_usuario"`
	EmailUsuario  string `json:"email_usuario"`
	PerfilUsuario string `json:"perfil_usuario"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	EmailUsuario string `json:"email_usuario"`
	SenhaUsuario string `json:"senha_usuario"`
}

// LoginResponse is the body returned by POST /api/login.
type LoginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    BackendUser `json:"user"`
}

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	NomeUsuario   string `json:"nome_usuario"`
	EmailUsuario  string `json:"email_usuario"`
	SenhaUsuario  string `json:"senha_usuario"`
	PerfilUsuario string `json:"perfil_usuario"`
}

// MessageResponse is a plain {message} acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
