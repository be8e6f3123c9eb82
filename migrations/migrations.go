// Package migrations はデータベースマイグレーションのSQLファイルを埋め込む。
package migrations

import "embed"

// FS は埋め込まれたマイグレーションファイル群。
// ファイル名のフォーマット: {version}_{name}.sql
//
//go:embed *.sql
var FS embed.FS
