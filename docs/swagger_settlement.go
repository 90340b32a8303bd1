package docs

// @title           Kommute Settlement Service API
// @version         1.0
// @description     Settles completed trips consumed from RabbitMQ. Only health and metrics are served over HTTP.

// @host      localhost:3002
// @BasePath  /
