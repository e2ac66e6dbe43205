// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sink

// movieIndexBody is the index settings and mapping for the movies index.
// The "ru_en" analyzer combines English and Russian stemming/stopwords so
// the catalogue's bilingual titles and descriptions are searchable in
// either language. dynamic: "strict" rejects any field the mapping does
// not already describe, so a transform bug surfaces as an indexing error
// instead of silently polluting the mapping.
const movieIndexBody = `{
  "settings": {
    "refresh_interval": "1s",
    "analysis": {
      "filter": {
        "english_stop": { "type": "stop", "stopwords": "_english_" },
        "english_stemmer": { "type": "stemmer", "language": "english" },
        "english_possessive_stemmer": { "type": "stemmer", "language": "possessive_english" },
        "russian_stop": { "type": "stop", "stopwords": "_russian_" },
        "russian_stemmer": { "type": "stemmer", "language": "russian" }
      },
      "analyzer": {
        "ru_en": {
          "tokenizer": "standard",
          "filter": [
            "lowercase",
            "english_stop",
            "english_stemmer",
            "english_possessive_stemmer",
            "russian_stop",
            "russian_stemmer"
          ]
        }
      }
    }
  },
  "mappings": {
    "dynamic": "strict",
    "properties": {
      "id": { "type": "keyword" },
      "imdb_rating": { "type": "float" },
      "genres": {
        "type": "nested",
        "dynamic": "strict",
        "properties": {
          "id": { "type": "keyword" },
          "name": { "type": "text" }
        }
      },
      "title": {
        "type": "text",
        "analyzer": "ru_en",
        "fields": { "raw": { "type": "keyword" } }
      },
      "description": { "type": "text", "analyzer": "ru_en" },
      "directors_names": { "type": "text", "analyzer": "ru_en" },
      "actors_names": { "type": "text", "analyzer": "ru_en" },
      "writers_names": { "type": "text", "analyzer": "ru_en" },
      "directors": {
        "type": "nested",
        "dynamic": "strict",
        "properties": {
          "id": { "type": "keyword" },
          "name": { "type": "text", "analyzer": "ru_en" }
        }
      },
      "actors": {
        "type": "nested",
        "dynamic": "strict",
        "properties": {
          "id": { "type": "keyword" },
          "name": { "type": "text", "analyzer": "ru_en" }
        }
      },
      "writers": {
        "type": "nested",
        "dynamic": "strict",
        "properties": {
          "id": { "type": "keyword" },
          "name": { "type": "text", "analyzer": "ru_en" }
        }
      }
    }
  }
}`

// flatNameIndexBody is the index mapping shared by the genres and persons
// indices, since both are flat id/name lookup documents.
const flatNameIndexBody = `{
  "mappings": {
    "dynamic": "strict",
    "properties": {
      "id": { "type": "keyword" },
      "name": {
        "type": "text",
        "fields": { "raw": { "type": "keyword" } }
      }
    }
  }
}`

// genreIndexBody is the genres index mapping.
func genreIndexBody() string { return flatNameIndexBody }

// personIndexBody is the persons index mapping.
func personIndexBody() string { return flatNameIndexBody }
