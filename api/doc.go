// Package api é a superfície HTTP da palavra secreta: envelopes JSON, rotas
// (chi), headers CORS e a conversão de qualquer falha em JSON.
//
// Os dois alvos de deploy (servidor HTTP e CGI) usam o mesmo NewRouter; só
// mudam o store do rate limit e o identificador em server_info.
package api
