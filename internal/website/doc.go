// Package website scrapes upcoming sermon themes from the church website
// with github.com/PuerkitoBio/goquery.
package website
